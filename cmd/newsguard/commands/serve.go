package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NeuralTrust/NewsGuard/pkg/dependency_container"
	infraLogger "github.com/NeuralTrust/NewsGuard/pkg/infra/logger"
	"github.com/NeuralTrust/NewsGuard/pkg/server"
	"github.com/NeuralTrust/NewsGuard/pkg/server/router"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Example: `  # Serve with ./config/config.yaml
  newsguard serve

  # Override the port
  SERVER_PORT=9090 newsguard serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := infraLogger.NewLogger(infraLogger.Config{
				Level:   cfg.Logging.Level,
				Dir:     cfg.Logging.Dir,
				File:    cfg.Logging.File,
				Console: cfg.Logging.Console,
			})
			if err != nil {
				return err
			}
			defer logger.Close()

			container, err := dependency_container.NewContainer(dependency_container.ContainerDI{
				Cfg:    cfg,
				Logger: logger.Logger,
			})
			if err != nil {
				logger.WithError(err).Error("failed to initialize dependencies")
				return err
			}
			defer container.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			container.Start(ctx)

			srv, err := server.NewAPIServer(server.APIServerDI{
				Config:              cfg,
				Logger:              logger.Logger,
				MiddlewareTransport: container.MiddlewareTransport,
				Routers: []router.ServerRouter{
					router.NewAPIRouter(&container.MiddlewareTransport, container.HandlerTransport),
				},
			})
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Run()
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server stopped: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("server shutdown failed")
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	return cmd
}
