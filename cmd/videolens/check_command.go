package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"videolens/internal/preflight"
	"videolens/internal/services"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the API key, model, staging directory and notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			var prober preflight.ModelProber
			if !offline && cfg.Gemini.APIKey != "" {
				backend, _, _, err := ctx.openBackend(cmd.Context())
				if err != nil {
					return err
				}
				defer backend.Close()
				prober = backend
			}

			results := preflight.RunAll(cmd.Context(), cfg, prober)
			rows := make([][]string, 0, len(results))
			for _, result := range results {
				status := "ok"
				if !result.Passed {
					status = "FAIL"
				}
				rows = append(rows, []string{result.Name, status, result.Detail})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]column{left("Check"), left("Status"), wrapped("Detail", 72)},
				rows,
			))
			if preflight.Failed(results) {
				return services.Wrap(services.ErrConfiguration, "preflight", "", "one or more checks failed", nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the remote model check")
	return cmd
}
