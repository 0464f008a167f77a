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
	"github.com/labstack/echo/v4"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (POST /login)
	Login(ctx echo.Context) error
	// (GET /health)
	Health(ctx echo.Context) error

	// (POST /products)
	CreateProduct(ctx echo.Context) error
	// (GET /products)
	ListProducts(ctx echo.Context) error
	// (GET /products/{id})
	GetProduct(ctx echo.Context, id string) error
	// (PUT /products/{id})
	UpdateProduct(ctx echo.Context, id string) error
	// (GET /products/{id}/negotiations)
	ListNegotiations(ctx echo.Context, productID string) error

	// (POST /negotiations/start)
	StartNegotiation(ctx echo.Context) error
	// (GET /negotiations/{id})
	GetNegotiation(ctx echo.Context, id string) error
	// (POST /negotiations/{id}/propose-price)
	ProposePrice(ctx echo.Context, id string) error
	// (POST /negotiations/{id}/accept)
	AcceptOffer(ctx echo.Context, id string) error
	// (POST /negotiations/{id}/reject)
	RejectOffer(ctx echo.Context, id string) error
	// (POST /negotiations/{id}/cancel)
	CancelNegotiation(ctx echo.Context, id string) error
}

// EchoRouter is the part of echo.Echo and echo.Group handlers are registered on.
type EchoRouter interface {
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

// ServerInterfaceWrapper extracts path parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) withID(h func(echo.Context, string) error) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return h(ctx, ctx.Param("id"))
	}
}

// RegisterHandlers adds each server route to the EchoRouter. Accepting and rejecting offers requires employeeOnly.
func RegisterHandlers(router EchoRouter, si ServerInterface, employeeOnly echo.MiddlewareFunc) {
	w := ServerInterfaceWrapper{Handler: si}

	router.POST("/login", si.Login)
	router.GET("/health", si.Health)

	router.POST("/products", si.CreateProduct)
	router.GET("/products", si.ListProducts)
	router.GET("/products/:id", w.withID(si.GetProduct))
	router.PUT("/products/:id", w.withID(si.UpdateProduct))
	router.GET("/products/:id/negotiations", w.withID(si.ListNegotiations))

	router.POST("/negotiations/start", si.StartNegotiation)
	router.GET("/negotiations/:id", w.withID(si.GetNegotiation))
	router.POST("/negotiations/:id/propose-price", w.withID(si.ProposePrice))
	router.POST("/negotiations/:id/accept", w.withID(si.AcceptOffer), employeeOnly)
	router.POST("/negotiations/:id/reject", w.withID(si.RejectOffer), employeeOnly)
	router.POST("/negotiations/:id/cancel", w.withID(si.CancelNegotiation))
}
