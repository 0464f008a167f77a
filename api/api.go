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
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-negotiation-service/domain"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg/logger"
)

// Wrapper provides the implementation of the ServerInterface
type Wrapper struct {
	Cl   pkg.NegotiationServiceClient
	Auth *Authenticator
}

var _ ServerInterface = (*Wrapper)(nil)

func (w Wrapper) Login(ctx echo.Context) error {
	request := &LoginRequest{}
	if err := ctx.Bind(request); err != nil {
		return invalidBody(ctx, err)
	}

	token, err := w.Auth.Login(request.Username, request.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return errorResponse(http.StatusUnauthorized, "unauthorized", err.Error())
		}
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (w Wrapper) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, HealthResponse{Status: "ok", Time: w.Cl.Now()})
}

func (w Wrapper) CreateProduct(ctx echo.Context) error {
	request := &ProductRequest{}
	if err := ctx.Bind(request); err != nil {
		return invalidBody(ctx, err)
	}
	if request.BasePrice == nil {
		return errorResponse(http.StatusBadRequest, string(domain.Validation), "basePrice is required")
	}

	p, err := w.Cl.CreateProduct(ctx.Request().Context(), request.Name, *request.BasePrice)
	if err != nil {
		return toHTTPError(err)
	}
	ctx.Response().Header().Set(echo.HeaderLocation, "/products/"+p.ID().String())
	return ctx.JSON(http.StatusCreated, productFromInternal(p))
}

func (w Wrapper) ListProducts(ctx echo.Context) error {
	products, err := w.Cl.ListProducts(ctx.Request().Context())
	if err != nil {
		return toHTTPError(err)
	}
	response := make([]Product, 0, len(products))
	for _, p := range products {
		response = append(response, productFromInternal(p))
	}
	return ctx.JSON(http.StatusOK, response)
}

func (w Wrapper) GetProduct(ctx echo.Context, id string) error {
	productID, err := parseID(id, "product")
	if err != nil {
		return toHTTPError(err)
	}
	p, err := w.Cl.GetProduct(ctx.Request().Context(), productID)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, productFromInternal(p))
}

func (w Wrapper) UpdateProduct(ctx echo.Context, id string) error {
	productID, err := parseID(id, "product")
	if err != nil {
		return toHTTPError(err)
	}
	request := &ProductRequest{}
	if err := ctx.Bind(request); err != nil {
		return invalidBody(ctx, err)
	}
	if request.BasePrice == nil {
		return errorResponse(http.StatusBadRequest, string(domain.Validation), "basePrice is required")
	}

	p, err := w.Cl.UpdateProduct(ctx.Request().Context(), productID, request.Name, *request.BasePrice)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, productFromInternal(p))
}

func (w Wrapper) ListNegotiations(ctx echo.Context, productID string) error {
	id, err := parseID(productID, "product")
	if err != nil {
		return toHTTPError(err)
	}
	views, err := w.Cl.ListNegotiations(ctx.Request().Context(), id)
	if err != nil {
		return toHTTPError(err)
	}
	now := w.Cl.Now()
	response := make([]Negotiation, 0, len(views))
	for _, view := range views {
		response = append(response, negotiationFromInternal(view, now))
	}
	return ctx.JSON(http.StatusOK, response)
}

func (w Wrapper) StartNegotiation(ctx echo.Context) error {
	request := &StartNegotiationRequest{}
	if err := ctx.Bind(request); err != nil {
		return invalidBody(ctx, err)
	}
	if strings.TrimSpace(request.ProductID) == "" {
		return errorResponse(http.StatusBadRequest, string(domain.Validation), "product ID cannot be empty")
	}
	productID, err := parseID(request.ProductID, "product")
	if err != nil {
		return toHTTPError(err)
	}

	view, err := w.Cl.StartNegotiation(ctx.Request().Context(), productID)
	if err != nil {
		return toHTTPError(err)
	}
	ctx.Response().Header().Set(echo.HeaderLocation, "/negotiations/"+view.ID.String())
	return ctx.JSON(http.StatusCreated, negotiationFromInternal(view, w.Cl.Now()))
}

func (w Wrapper) GetNegotiation(ctx echo.Context, id string) error {
	negotiationID, err := parseID(id, "negotiation")
	if err != nil {
		return toHTTPError(err)
	}
	view, err := w.Cl.GetNegotiation(ctx.Request().Context(), negotiationID)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, negotiationFromInternal(view, w.Cl.Now()))
}

func (w Wrapper) ProposePrice(ctx echo.Context, id string) error {
	negotiationID, err := parseID(id, "negotiation")
	if err != nil {
		return toHTTPError(err)
	}
	request := &ProposePriceRequest{}
	if err := ctx.Bind(request); err != nil {
		return invalidBody(ctx, err)
	}
	if request.ProposedPrice == nil {
		return errorResponse(http.StatusBadRequest, string(domain.Validation), "proposedPrice is required")
	}

	view, err := w.Cl.ProposePrice(ctx.Request().Context(), negotiationID, *request.ProposedPrice)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, negotiationFromInternal(view, w.Cl.Now()))
}

func (w Wrapper) AcceptOffer(ctx echo.Context, id string) error {
	negotiationID, err := parseID(id, "negotiation")
	if err != nil {
		return toHTTPError(err)
	}
	view, err := w.Cl.AcceptOffer(ctx.Request().Context(), negotiationID)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, negotiationFromInternal(view, w.Cl.Now()))
}

func (w Wrapper) RejectOffer(ctx echo.Context, id string) error {
	negotiationID, err := parseID(id, "negotiation")
	if err != nil {
		return toHTTPError(err)
	}
	view, err := w.Cl.RejectOffer(ctx.Request().Context(), negotiationID)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, negotiationFromInternal(view, w.Cl.Now()))
}

func (w Wrapper) CancelNegotiation(ctx echo.Context, id string) error {
	negotiationID, err := parseID(id, "negotiation")
	if err != nil {
		return toHTTPError(err)
	}
	request := &CancelNegotiationRequest{}
	if err := ctx.Bind(request); err != nil {
		return invalidBody(ctx, err)
	}

	view, err := w.Cl.CancelNegotiation(ctx.Request().Context(), negotiationID, request.Reason)
	if err != nil {
		return toHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, negotiationFromInternal(view, w.Cl.Now()))
}

func parseID(raw string, entity string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.Errorf(domain.Validation, "%s ID %q is not a valid UUID", entity, raw)
	}
	return id, nil
}

func invalidBody(ctx echo.Context, err error) error {
	ctx.Logger().Debugf("could not unmarshal json body: %v", err)
	return errorResponse(http.StatusBadRequest, string(domain.Validation), "invalid request body")
}

func errorResponse(status int, code, message string) *echo.HTTPError {
	return echo.NewHTTPError(status, ErrorResponse{Error: message, Code: code})
}

// httpStatus maps the kind of a business error onto an HTTP status. Unknown kinds are internal errors.
func httpStatus(kind domain.Kind) int {
	switch kind {
	case domain.Validation, domain.InvalidState, domain.InvalidPrice, domain.AttemptsExceeded:
		return http.StatusBadRequest
	case domain.NotFound:
		return http.StatusNotFound
	case domain.ResponseTimeExceeded, domain.Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func toHTTPError(err error) error {
	kind := domain.KindOf(err)
	status := httpStatus(kind)
	if status == http.StatusInternalServerError {
		logger.Logger().WithError(err).Error("unexpected error while handling request")
		return errorResponse(status, "internal", "an unexpected error occurred")
	}
	return errorResponse(status, string(kind), err.Error())
}
