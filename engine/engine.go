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
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nuts-foundation/nuts-negotiation-service/api"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Engine bundles the service with its commands, config flags and HTTP routes.
type Engine struct {
	Name      string
	Cmd       *cobra.Command
	ConfigKey string
	FlagSet   *pflag.FlagSet
	Config    *pkg.NegotiationServiceConfig
	Configure func() error
	Start     func() error
	Shutdown  func() error
	Routes    func(router api.EchoRouter)
}

func NewNegotiationServiceEngine() *Engine {
	return newEngine(pkg.NegotiationServiceInstance())
}

func newEngine(cl *pkg.NegotiationService) *Engine {
	return &Engine{
		Name:      "NegotiationServiceInstance",
		Cmd:       cmd(cl),
		Configure: cl.Configure,
		Start:     cl.Start,
		ConfigKey: "negotiation",
		FlagSet:   pkg.FlagSet(),
		Config:    &cl.Config,
		Shutdown:  cl.Shutdown,
		Routes: func(router api.EchoRouter) {
			auth := api.NewAuthenticator(cl.Config, cl.Now)
			api.RegisterHandlers(router, api.Wrapper{Cl: cl, Auth: auth}, auth.RequireRole(api.EmployeeRole))
		},
	}
}

func cmd(cl *pkg.NegotiationService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "negotiation-service",
		Short: "negotiation service commands",
	}

	products := &cobra.Command{
		Use:   "product",
		Short: "manage the products negotiations are started for",
	}
	products.AddCommand(&cobra.Command{
		Use:     "create [name] [base price]",
		Example: "create chair 149.95",
		Short:   "create a product",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid base price %q: %w", args[1], err)
			}
			return withService(cmd, cl, func(ctx context.Context) error {
				p, err := cl.CreateProduct(ctx, args[0], price)
				if err != nil {
					return err
				}
				return printJSON(cmd, api.Product{ID: p.ID(), Name: p.Name, BasePrice: p.BasePrice})
			})
		},
	})
	products.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "list all products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, cl, func(ctx context.Context) error {
				list, err := cl.ListProducts(ctx)
				if err != nil {
					return err
				}
				result := make([]api.Product, 0, len(list))
				for _, p := range list {
					result = append(result, api.Product{ID: p.ID(), Name: p.Name, BasePrice: p.BasePrice})
				}
				return printJSON(cmd, result)
			})
		},
	})
	cmd.AddCommand(products)

	cmd.AddCommand(&cobra.Command{
		Use:     "negotiations [product ID]",
		Example: "negotiations 0b6f6a5e-4b87-4c11-9b0c-3a8c4e2c1d10",
		Short:   "list the negotiations of a product",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a product ID")
			}
			if _, err := uuid.Parse(args[0]); err != nil {
				return fmt.Errorf("invalid product ID %q: %w", args[0], err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, cl, func(ctx context.Context) error {
				views, err := cl.ListNegotiations(ctx, uuid.MustParse(args[0]))
				if err != nil {
					return err
				}
				return printJSON(cmd, views)
			})
		},
	})
	return cmd
}

// withService runs f against a started service and shuts it down afterwards.
func withService(cmd *cobra.Command, cl *pkg.NegotiationService, f func(ctx context.Context) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := cl.Start(); err != nil {
		return err
	}
	defer cl.Shutdown()
	return f(ctx)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
