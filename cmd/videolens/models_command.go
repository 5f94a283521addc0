package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"videolens/internal/textutil"
)

func newModelsCommand(ctx *commandContext) *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models requests may use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !remote {
				rows := make([][]string, 0, len(cfg.Gemini.AllowedModels))
				for _, name := range cfg.Gemini.AllowedModels {
					rows = append(rows, []string{name, textutil.ModelLabel(name), yesNo(name == cfg.Gemini.Model)})
				}
				fmt.Fprintln(out, renderTable(
					[]column{left("Model"), left("Label"), left("Default")},
					rows,
				))
				return nil
			}

			backend, cfg, _, err := ctx.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()
			models, err := backend.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(models))
			for _, m := range models {
				rows = append(rows, []string{
					m.Name,
					m.DisplayName,
					humanize.Comma(int64(m.InputTokenLimit)),
					humanize.Comma(int64(m.OutputTokenLimit)),
					yesNo(cfg.ModelAllowed(m.Name)),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]column{left("Model"), left("Display name"), right("Input tokens"), right("Output tokens"), left("Allowed")},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Query the provider for models supporting content generation")
	return cmd
}
