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

package engine

import (
	"bytes"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thedevsaddam/gojsonq/v2"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	config := pkg.DefaultConfig()
	config.JWT.Key = "test-signing-key"
	cl := pkg.NewNegotiationService(config)
	require.NoError(t, cl.Configure())
	return newEngine(cl)
}

func run(t *testing.T, e *Engine, args ...string) (string, error) {
	t.Helper()
	out := new(bytes.Buffer)
	e.Cmd.SetOut(out)
	e.Cmd.SetErr(out)
	e.Cmd.SetArgs(args)
	err := e.Cmd.Execute()
	return out.String(), err
}

func TestNewNegotiationServiceEngine(t *testing.T) {
	e := NewNegotiationServiceEngine()

	assert.Equal(t, "negotiation", e.ConfigKey)
	assert.NotNil(t, e.FlagSet.Lookup(pkg.ConfStore))
	assert.NotNil(t, e.FlagSet.Lookup(pkg.ConfJWTTTL))
	assert.Same(t, &pkg.NegotiationServiceInstance().Config, e.Config)
	for _, name := range []string{"product", "negotiations"} {
		_, _, err := e.Cmd.Find([]string{name})
		assert.NoError(t, err, name)
	}
}

func TestEngine_Routes(t *testing.T) {
	e := newTestEngine(t)
	server := echo.New()

	e.Routes(server)

	registered := map[string]bool{}
	for _, route := range server.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, route := range []string{
		"POST /login",
		"GET /health",
		"POST /products",
		"PUT /products/:id",
		"GET /products/:id/negotiations",
		"POST /negotiations/start",
		"POST /negotiations/:id/accept",
		"POST /negotiations/:id/reject",
	} {
		assert.True(t, registered[route], route)
	}
	assert.Len(t, server.Routes(), 13)
}

func TestEngine_Cmd(t *testing.T) {
	t.Run("product create", func(t *testing.T) {
		out, err := run(t, newTestEngine(t), "product", "create", "chair", "149.95")

		require.NoError(t, err)
		assert.Equal(t, "chair", gojsonq.New().FromString(out).Find("name"))
		assert.Equal(t, "149.95", gojsonq.New().FromString(out).Find("basePrice"))
	})

	t.Run("product create with invalid price", func(t *testing.T) {
		_, err := run(t, newTestEngine(t), "product", "create", "chair", "cheap")

		require.Error(t, err)
		assert.Contains(t, err.Error(), `invalid base price "cheap"`)
	})

	t.Run("product create with rejected price", func(t *testing.T) {
		_, err := run(t, newTestEngine(t), "product", "create", "chair", "0")

		assert.EqualError(t, err, "base price has to be greater than 0")
	})

	t.Run("product list on an empty store", func(t *testing.T) {
		out, err := run(t, newTestEngine(t), "product", "list")

		require.NoError(t, err)
		assert.Equal(t, "[]\n", out)
	})

	t.Run("negotiations requires a valid product ID", func(t *testing.T) {
		_, err := run(t, newTestEngine(t), "negotiations", "chair")

		assert.Error(t, err)
	})

	t.Run("negotiations of an unknown product", func(t *testing.T) {
		out, err := run(t, newTestEngine(t), "negotiations", "0b6f6a5e-4b87-4c11-9b0c-3a8c4e2c1d10")

		require.NoError(t, err)
		assert.Equal(t, "[]\n", out)
	})
}
