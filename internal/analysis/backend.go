package analysis

import "context"

// Model is a configured remote model handle.
type Model interface {
	// Analyze opens a single-turn conversation whose first user turn holds
	// parts, sends prompt, and returns the reply text.
	Analyze(ctx context.Context, parts []Part, prompt string) (string, error)
}

// AssetFetcher reads the current state of an uploaded asset.
type AssetFetcher interface {
	GetAsset(ctx context.Context, name string) (Asset, error)
}

// Backend is the remote model provider.
type Backend interface {
	AssetFetcher
	NewModel(ctx context.Context, spec ModelSpec) (Model, error)
	Upload(ctx context.Context, path, displayName, mimeType string) (Asset, error)
	DeleteAsset(ctx context.Context, name string) error
}
