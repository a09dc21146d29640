package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathquest/internal/api"
	"github.com/abhisek/mathquest/internal/curriculum"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP and WebSocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}

		d, err := openDeps(cmd, logger)
		if err != nil {
			return err
		}
		defer d.Close()

		grade, _ := curriculum.ParseGrade(cfg.Challenge.DefaultGrade)
		checks := map[string]api.Pinger{"sqlite": d.store}
		if d.redis != nil {
			checks["redis"] = redisPinger{d}
		}
		h := api.NewHandler(api.Deps{
			Sessions:           d.sessions,
			Challenges:         d.challenges,
			Rewards:            d.rewards,
			History:            d.store,
			Checks:             checks,
			DefaultGrade:       grade,
			ChallengeQuestions: cfg.Challenge.QuestionCount,
			Logger:             logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// No WriteTimeout: challenge feeds are long-lived WebSockets. Request
		// contexts derive from ctx so open feeds end on shutdown.
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           h.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", cfg.Server.Addr, "backend", cfg.Backend)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("listen: %w", err)
			}
			return nil
		case <-ctx.Done():
		}

		logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		logger.Info("server stopped")
		return nil
	},
}

type redisPinger struct{ d *deps }

func (p redisPinger) Ping(ctx context.Context) error {
	return p.d.redis.Ping(ctx).Err()
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides MATHQUEST_HTTP_ADDR)")
}
