package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	httpctrl "github.com/hindsight-journal/hindsight/pkg/controller/http"
	"github.com/hindsight-journal/hindsight/pkg/service/worker"
	"github.com/hindsight-journal/hindsight/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var jwtSecret string
	var jwtAudience string
	var refreshInterval time.Duration
	var watch bool
	var debounce time.Duration
	var cfg engineConfig

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("HINDSIGHT_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "HS256 secret for API bearer tokens (at least 32 bytes). API is open without it",
			Category:    "Authentication",
			Sources:     cli.EnvVars("HINDSIGHT_JWT_SECRET"),
			Destination: &jwtSecret,
		},
		&cli.StringFlag{
			Name:        "jwt-audience",
			Usage:       "Required audience claim of API bearer tokens",
			Category:    "Authentication",
			Sources:     cli.EnvVars("HINDSIGHT_JWT_AUDIENCE"),
			Destination: &jwtAudience,
		},
		&cli.DurationFlag{
			Name:        "refresh-interval",
			Usage:       "Interval of periodic index updates, 0 disables them",
			Value:       10 * time.Minute,
			Category:    "Index",
			Sources:     cli.EnvVars("HINDSIGHT_REFRESH_INTERVAL"),
			Destination: &refreshInterval,
		},
		&cli.BoolFlag{
			Name:        "watch",
			Usage:       "Update the index when files in the vault directories change",
			Value:       true,
			Category:    "Index",
			Sources:     cli.EnvVars("HINDSIGHT_WATCH"),
			Destination: &watch,
		},
		&cli.DurationFlag{
			Name:        "debounce",
			Usage:       "Quiet period after a file change before the index is updated",
			Value:       worker.DefaultDebounce,
			Category:    "Index",
			Sources:     cli.EnvVars("HINDSIGHT_DEBOUNCE"),
			Destination: &debounce,
		},
	}
	flags = append(flags, cfg.Flags()...)

	return &cli.Command{
		Name:  "serve",
		Usage: "Start HTTP server and keep the index up to date",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			eng, err := cfg.Configure(ctx, true)
			if err != nil {
				return err
			}
			defer eng.Close()

			var httpOpts []httpctrl.Options
			if jwtSecret != "" {
				auth, err := httpctrl.NewJWTAuth([]byte(jwtSecret), jwtAudience)
				if err != nil {
					return goerr.Wrap(err, "failed to configure authentication")
				}
				httpOpts = append(httpOpts, httpctrl.WithJWTAuth(auth))
				logging.Default().Info("JWT authentication enabled", "audience", jwtAudience)
			} else {
				logging.Default().Warn("JWT secret not configured, API is unauthenticated")
			}

			if err := eng.load(ctx); err != nil {
				return err
			}

			workerCtx, cancelWorker := context.WithCancel(ctx)
			defer cancelWorker()

			var workerOpts []worker.Option
			if watch && eng.vault != nil {
				trigger, err := eng.vault.Watch(workerCtx)
				if err != nil {
					return goerr.Wrap(err, "failed to watch vault")
				}
				workerOpts = append(workerOpts, worker.WithTrigger(trigger), worker.WithDebounce(debounce))
			}

			// The worker runs the initial update, so the server comes up on the stored index
			var refreshWorker *worker.IndexRefreshWorker
			if eng.uc.Index.Model() != "" {
				refreshWorker = worker.NewIndexRefreshWorker(eng.uc.Index, refreshInterval, workerOpts...)
				if err := refreshWorker.Start(workerCtx); err != nil {
					return goerr.Wrap(err, "failed to start index refresh worker")
				}
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(eng.uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr, "vault_id", cfg.source.VaultID())
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				// Stop the worker first so no update is cut off by the repository close
				if refreshWorker != nil {
					refreshWorker.Stop()
				}
				cancelWorker()

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}
