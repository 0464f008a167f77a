/*
 *  Nuts negotiation service holds the logic for price negotiations
 *  Copyright (C) 2020 Nuts community
 *
 *  This program is free software: you can redistribute it and/or modify
 *  it under the terms of the GNU General Public License as published by
 *  the Free Software Foundation, either version 3 of the License, or
 *  (at your option) any later version.
 *
 *  This program is distributed in the hope that it will be useful,
 *  but WITHOUT ANY WARRANTY; without even the implied warranty of
 *  MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 *  GNU General Public License for more details.
 *
 *  You should have received a copy of the GNU General Public License
 *  along with this program.  If not, see <https://www.gnu.org/licenses/>.
 */

package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/negotiation"
	"github.com/nuts-foundation/nuts-negotiation-service/domain/product"
	"github.com/shopspring/decimal"
)

// LoginRequest defines model for LoginRequest.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse defines model for LoginResponse.
type LoginResponse struct {
	Token string `json:"token"`
}

// ProductRequest is the body of both create and update of a product.
type ProductRequest struct {
	Name      string           `json:"name"`
	BasePrice *decimal.Decimal `json:"basePrice"`
}

// Product defines model for Product.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	BasePrice decimal.Decimal `json:"basePrice"`
}

// StartNegotiationRequest defines model for StartNegotiationRequest.
type StartNegotiationRequest struct {
	ProductID string `json:"productId"`
}

// ProposePriceRequest defines model for ProposePriceRequest.
type ProposePriceRequest struct {
	ProposedPrice *decimal.Decimal `json:"proposedPrice"`
}

// CancelNegotiationRequest defines model for CancelNegotiationRequest.
type CancelNegotiationRequest struct {
	Reason string `json:"reason"`
}

// Negotiation defines model for Negotiation.
type Negotiation struct {
	ID                         uuid.UUID       `json:"id"`
	ProductID                  uuid.UUID       `json:"productId"`
	InitialPrice               decimal.Decimal `json:"initialPrice"`
	CurrentProposedPrice       decimal.Decimal `json:"currentProposedPrice"`
	Status                     string          `json:"status"`
	AttemptsLeft               int             `json:"attemptsLeft"`
	NegotiationStartedDate     time.Time       `json:"negotiationStartedDate"`
	LastOfferDate              *time.Time      `json:"lastOfferDate,omitempty"`
	EmployeeResponseDate       *time.Time      `json:"employeeResponseDate,omitempty"`
	CancellationReason         string          `json:"cancellationReason,omitempty"`
	CanClientProposeNewPrice   bool            `json:"canClientProposeNewPrice"`
	IsExpiredForClientResponse bool            `json:"isExpiredForClientResponse"`
}

// ErrorResponse is the body of every error the API returns.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse defines model for HealthResponse.
type HealthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func productFromInternal(p product.Product) Product {
	return Product{ID: p.ID(), Name: p.Name, BasePrice: p.BasePrice}
}

// negotiationFromInternal converts a view; the time dependent flags are evaluated at now.
func negotiationFromInternal(view negotiation.View, now time.Time) Negotiation {
	return Negotiation{
		ID:                         view.ID,
		ProductID:                  view.ProductID,
		InitialPrice:               view.InitialPrice,
		CurrentProposedPrice:       view.CurrentProposedPrice,
		Status:                     view.Status.String(),
		AttemptsLeft:               view.AttemptsLeft,
		NegotiationStartedDate:     view.StartedAt,
		LastOfferDate:              view.LastOfferAt,
		EmployeeResponseDate:       view.EmployeeResponseAt,
		CancellationReason:         view.CancellationReason,
		CanClientProposeNewPrice:   view.CanClientProposeNewPrice(),
		IsExpiredForClientResponse: view.IsExpiredForClientResponse(now),
	}
}
