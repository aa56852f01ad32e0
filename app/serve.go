package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/trufnetwork/rootcred/internal/server"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the issuance and verification JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.setup(); err != nil {
				return err
			}
			defer env.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(env.cfg, env.client, env.session,
				server.WithLogger(env.logger),
				server.WithMetrics(env.metrics),
				server.WithProber(server.ProberFunc(func(ctx context.Context) (uint64, error) {
					backend, err := env.dialer.Backend(ctx)
					if err != nil {
						return 0, err
					}
					return backend.BlockNumber(ctx)
				})))

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(ctx) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			env.logger.Info("shutdown signal received")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				env.logger.Error("shutdown failed", zap.Error(err))
				return err
			}
			return <-errCh
		},
	}
}
