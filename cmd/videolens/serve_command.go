package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"videolens/internal/api"
	"videolens/internal/logging"
	"videolens/internal/notifications"
	"videolens/internal/preflight"
	"videolens/internal/staging"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var skipChecks bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backend, cfg, logger, err := ctx.openBackend(runCtx)
			if err != nil {
				return err
			}
			defer backend.Close()

			if value := strings.TrimSpace(bind); value != "" {
				cfg.Server.Bind = value
			}

			if !skipChecks {
				for _, result := range preflight.RunAll(runCtx, cfg, backend) {
					if result.Passed {
						logger.Debug("preflight check passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
						continue
					}
					logger.Warn("preflight check failed",
						logging.String("check", result.Name),
						logging.String("detail", result.Detail),
					)
				}
			}

			if swept := staging.CleanStale(runCtx, cfg.Uploads.TempDir, defaultStaleAge, logger); len(swept.Removed) > 0 {
				logger.Info("swept stale staging directories", logging.Int("removed", len(swept.Removed)))
			}

			analyzer := newAnalyzer(backend, cfg, logger, nil)
			server, err := api.New(cfg, analyzer,
				api.WithNotifier(notifications.NewService(cfg)),
				api.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			err = server.ListenAndServe(runCtx, func(addr string) {
				fmt.Fprintf(out, "Listening on http://%s\n", addr)
				logger.Info("server listening", logging.String("addr", addr), logging.String("model", cfg.Gemini.Model))
			})
			if err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Override server.bind (host:port)")
	cmd.Flags().BoolVar(&skipChecks, "skip-checks", false, "Start without running preflight checks")
	return cmd
}
