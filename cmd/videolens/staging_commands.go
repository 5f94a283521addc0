package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"videolens/internal/staging"
)

const defaultStaleAge = 24 * time.Hour

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect leftover request staging directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List request staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			dirs, err := staging.ListDirectories(cfg.Uploads.TempDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(dirs) == 0 {
				fmt.Fprintln(out, "No staging directories found")
				return nil
			}

			fmt.Fprintf(out, "Staging directory: %s\n\n", cfg.Uploads.TempDir)
			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				totalSize += dir.Size
				rows = append(rows, []string{dir.Name, humanize.Time(dir.ModTime), humanize.Bytes(uint64(dir.Size))})
			}
			fmt.Fprintln(out, renderTable(
				[]column{left("Directory"), right("Modified"), right("Size")},
				rows,
			))
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), humanize.Bytes(uint64(totalSize)))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration
	var all bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove stale request staging directories",
		Long: `Remove request directories left behind by interrupted analyses.

By default only directories untouched for --max-age are removed, so requests
running in a server process are not disturbed. Use --all to remove every
request directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			age := maxAge
			if all {
				age = 0
			}

			result := staging.CleanStale(cmd.Context(), cfg.Uploads.TempDir, age, logger)
			out := cmd.OutOrStdout()
			for _, path := range result.Removed {
				fmt.Fprintf(out, "Removed %s\n", path)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "Failed to remove %s: %v\n", failure.Path, failure.Error)
			}
			fmt.Fprintf(out, "Removed %d directories\n", len(result.Removed))
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d directories could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", defaultStaleAge, "Only remove directories older than this")
	cmd.Flags().BoolVar(&all, "all", false, "Remove all request directories regardless of age")
	return cmd
}
