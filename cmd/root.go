package cmd

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nuts-foundation/nuts-negotiation-service/engine"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg"
	"github.com/nuts-foundation/nuts-negotiation-service/pkg/logger"
	"github.com/nuts-foundation/nuts-negotiation-service/storage/postgres/migrations"
	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"
)

const confConfigFile = "configfile"
const version = `Nuts negotiation service v0.1 -- HEAD`
const shutdownTimeout = 10 * time.Second

var configFile string

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCommand := newRootCommand(engine.NewNegotiationServiceEngine())
	if err := rootCommand.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(e *engine.Engine) *cobra.Command {
	rootCommand := e.Cmd
	rootCommand.Version = version
	rootCommand.PersistentFlags().AddFlagSet(e.FlagSet)
	rootCommand.PersistentFlags().StringVar(&configFile, confConfigFile, "", "Path to a YAML config file")
	rootCommand.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		config, err := pkg.LoadConfig(e.FlagSet, configFile)
		if err != nil {
			return err
		}
		*e.Config = config
		return e.Configure()
	}

	rootCommand.AddCommand(serveCommand(e))
	rootCommand.AddCommand(migrateCommand(e))
	return rootCommand
}

func serveCommand(e *engine.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the negotiation service as a standalone api server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.Start(); err != nil {
				return err
			}
			defer e.Shutdown()

			server := echo.New()
			server.HideBanner = true
			server.HidePort = true
			server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: requestIDGenerator()}))
			server.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
				Format: `{"time":"${time_rfc3339}","id":"${id}","method":"${method}","uri":"${uri}","status":${status},"latency":"${latency_human}"}` + "\n",
			}))
			server.Use(middleware.Recover())
			e.Routes(server)

			srvErr := make(chan error, 1)
			go func() {
				logger.Logger().Infof("api listening on %s", e.Config.Address)
				srvErr <- server.Start(e.Config.Address)
			}()

			stopCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			select {
			case err := <-srvErr:
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("server error: %w", err)
				}
			case <-stopCtx.Done():
				logger.Logger().Info("shutdown signal received, stopping server")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Logger().Info("server stopped")
			return nil
		},
	}
}

func migrateCommand(e *engine.Engine) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database migrations of the postgres store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.Config.Store != pkg.PostgresStore {
				return fmt.Errorf("migrate requires --%s=%s", pkg.ConfStore, pkg.PostgresStore)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()
			pool, err := pgxpool.New(ctx, e.Config.Database)
			if err != nil {
				return fmt.Errorf("connect to db: %w", err)
			}
			defer pool.Close()
			if err := migrations.Apply(ctx, pool); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}

			names, err := migrations.Names()
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

// requestIDGenerator returns ULIDs, which sort by the time the request came in.
func requestIDGenerator() func() string {
	var mu sync.Mutex
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Now(), entropy).String()
	}
}
