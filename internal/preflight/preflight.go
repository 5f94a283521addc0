package preflight

import (
	"context"

	"videolens/internal/config"
	"videolens/internal/services/gemini"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// ModelProber fetches remote model metadata. *gemini.Client satisfies it.
type ModelProber interface {
	ModelInfo(ctx context.Context, name string) (gemini.ModelDetails, error)
}

// RunAll executes the preflight checks for the given config. The remote
// model check runs only when prober is non-nil and an API key is present.
func RunAll(ctx context.Context, cfg *config.Config, prober ModelProber) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckAPIKey(cfg)}

	if prober != nil && results[0].Passed {
		results = append(results, CheckModel(ctx, prober, cfg.Gemini.Model))
	}

	results = append(results,
		CheckDirectoryAccess("Temp directory", cfg.Uploads.TempDir),
		CheckFreeSpace("Temp free space", cfg.Uploads.TempDir, uint64(cfg.MaxUploadBytes())),
		CheckNotifications(cfg),
	)
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
