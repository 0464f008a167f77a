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
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/jwa"
	"github.com/lestrrat-go/jwx/jwt"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg"
)

// EmployeeRole is the role claim of tokens handed out to employees.
const EmployeeRole = "Employee"

const roleClaim = "role"

var ErrInvalidCredentials = errors.New("invalid username or password")

// Authenticator issues and verifies the HS256 tokens of the API.
type Authenticator struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	employee pkg.EmployeeConfig
	now      func() time.Time
}

func NewAuthenticator(config pkg.NegotiationServiceConfig, now func() time.Time) *Authenticator {
	return &Authenticator{
		key:      []byte(config.JWT.Key),
		issuer:   config.JWT.Issuer,
		audience: config.JWT.Audience,
		ttl:      config.JWT.TTL,
		employee: config.Employee,
		now:      now,
	}
}

// Login checks the employee credentials and returns a signed token with the employee role.
func (a *Authenticator) Login(username, password string) (string, error) {
	validUser := subtle.ConstantTimeCompare([]byte(username), []byte(a.employee.Username)) == 1
	validPassword := subtle.ConstantTimeCompare([]byte(password), []byte(a.employee.Password)) == 1
	if !validUser || !validPassword {
		return "", ErrInvalidCredentials
	}
	return a.issue(username, EmployeeRole)
}

func (a *Authenticator) issue(subject, role string) (string, error) {
	now := a.now()
	token := jwt.New()
	claims := map[string]interface{}{
		jwt.SubjectKey:    subject,
		jwt.JwtIDKey:      uuid.New().String(),
		jwt.IssuerKey:     a.issuer,
		jwt.AudienceKey:   a.audience,
		jwt.IssuedAtKey:   now,
		jwt.ExpirationKey: now.Add(a.ttl),
		roleClaim:         role,
	}
	for name, value := range claims {
		if err := token.Set(name, value); err != nil {
			return "", fmt.Errorf("could not set claim %s: %w", name, err)
		}
	}

	signed, err := jwt.Sign(token, jwa.HS256, a.key)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}
	return string(signed), nil
}

// Verify parses the token and checks signature, issuer, audience and expiry.
func (a *Authenticator) Verify(raw string) (jwt.Token, error) {
	return jwt.Parse(
		[]byte(raw),
		jwt.WithVerify(jwa.HS256, a.key),
		jwt.WithValidate(true),
		jwt.WithIssuer(a.issuer),
		jwt.WithAudience(a.audience),
		jwt.WithClock(jwt.ClockFunc(a.now)),
	)
}

// RequireRole only lets requests through that carry a valid bearer token with the given role.
func (a *Authenticator) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Request().Header.Get(echo.HeaderAuthorization)
			raw := strings.TrimPrefix(header, "Bearer ")
			if header == "" || raw == header {
				return errorResponse(http.StatusUnauthorized, "unauthorized", "missing bearer token")
			}

			token, err := a.Verify(raw)
			if err != nil {
				ctx.Logger().Debugf("rejected token: %v", err)
				return errorResponse(http.StatusUnauthorized, "unauthorized", "invalid token")
			}
			if claim, ok := token.Get(roleClaim); !ok || claim != role {
				return errorResponse(http.StatusForbidden, "forbidden", fmt.Sprintf("requires role %s", role))
			}

			ctx.Set("subject", token.Subject())
			return next(ctx)
		}
	}
}
