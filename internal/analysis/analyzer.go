package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"videolens/internal/logging"
	"videolens/internal/services"
)

const remoteCleanupTimeout = 30 * time.Second

// Analyzer sequences uploads, readiness polling, and the model conversation.
type Analyzer struct {
	backend      Backend
	models       *ModelCache
	poller       *Poller
	tempDir      string
	deleteRemote bool
	logger       *slog.Logger
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithModelCache injects the model handle cache. Without it the analyzer
// builds a private cache over Backend.NewModel.
func WithModelCache(cache *ModelCache) Option {
	return func(a *Analyzer) {
		if cache != nil {
			a.models = cache
		}
	}
}

// WithPoller overrides the readiness poller.
func WithPoller(poller *Poller) Option {
	return func(a *Analyzer) {
		if poller != nil {
			a.poller = poller
		}
	}
}

// WithTempDir sets the root under which per-request staging directories are created.
func WithTempDir(dir string) Option {
	return func(a *Analyzer) {
		a.tempDir = strings.TrimSpace(dir)
	}
}

// WithRemoteCleanup deletes uploaded assets from the provider once an
// analysis finishes, whatever its outcome.
func WithRemoteCleanup(enabled bool) Option {
	return func(a *Analyzer) {
		a.deleteRemote = enabled
	}
}

// WithLogger sets the analyzer logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

// New constructs an Analyzer over backend.
func New(backend Backend, opts ...Option) *Analyzer {
	a := &Analyzer{backend: backend}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "analysis")
	if a.models == nil {
		a.models = NewModelCache(backend.NewModel)
	}
	if a.poller == nil {
		a.poller = NewPoller(backend, WithPollerLogger(a.logger))
	}
	return a
}

// Analyze runs the operation matching the request source.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (Result, error) {
	started := time.Now()
	result := Result{Model: req.Model.Name}

	var err error
	switch src := req.Source.(type) {
	case URLSource:
		result.Text, err = a.AnalyzeURL(ctx, src.URL, req.Model, req.Prompt)
	case FileSet:
		result.Text, result.Assets, err = a.analyzeFiles(ctx, src.Files, req.Model, req.Prompt)
	case nil:
		err = services.Wrap(services.ErrValidation, "analysis", "request", "a URL or at least one file is required", nil)
	default:
		err = services.Wrap(services.ErrValidation, "analysis", "request", fmt.Sprintf("unsupported source %T", src), nil)
	}
	result.Elapsed = time.Since(started)
	return result, err
}

// AnalyzeURL asks the model about a video it fetches itself. The URL is sent
// unchanged as the only part of the first turn.
func (a *Analyzer) AnalyzeURL(ctx context.Context, url string, spec ModelSpec, prompt string) (string, error) {
	logger := logging.WithContext(ctx, a.logger)
	logger.Info("analyzing url", logging.String("url", url), logging.String("model", spec.Name))
	return a.converse(ctx, spec, []Part{TextPart(url)}, prompt)
}

// AnalyzeFiles stages, uploads and waits for files, then asks the model about
// them in input order. Staged copies are removed on every return path.
func (a *Analyzer) AnalyzeFiles(ctx context.Context, files []InputFile, spec ModelSpec, prompt string) (string, error) {
	text, _, err := a.analyzeFiles(ctx, files, spec, prompt)
	return text, err
}

func (a *Analyzer) analyzeFiles(ctx context.Context, files []InputFile, spec ModelSpec, prompt string) (string, []Asset, error) {
	if len(files) == 0 {
		return "", nil, services.Wrap(services.ErrValidation, "analysis", "files", "at least one file is required", nil)
	}
	logger := logging.WithContext(ctx, a.logger)

	stage, err := newStaging(a.tempDir, logger)
	if err != nil {
		return "", nil, services.Wrap(services.ErrUpload, "analysis", "stage", "", err)
	}
	defer stage.cleanup()

	uploaded := make([]Asset, 0, len(files))
	if a.deleteRemote {
		defer func() { a.deleteAssets(ctx, uploaded) }()
	}

	uploadCtx := services.WithStage(ctx, "upload")
	for i, file := range files {
		staged, err := stage.write(i, file)
		if err != nil {
			return "", nil, services.Wrap(services.ErrUpload, "analysis", "stage", file.Name, err)
		}
		asset, err := a.backend.Upload(uploadCtx, staged.Path, staged.DisplayName, staged.MIMEType)
		if err != nil {
			return "", nil, ensureMarked(err, services.ErrUpload, "upload", file.Name)
		}
		uploaded = append(uploaded, asset)
		logger.Info("uploaded file",
			logging.String("file", staged.DisplayName),
			logging.String("asset", asset.Name),
			logging.String("mime_type", staged.MIMEType),
			logging.Size("size", staged.Size),
		)
	}

	ready, err := a.poller.WaitActive(services.WithStage(ctx, "poll"), uploaded)
	if err != nil {
		return "", nil, err
	}

	parts := make([]Part, 0, len(ready))
	for _, asset := range ready {
		parts = append(parts, asset)
	}
	text, err := a.converse(ctx, spec, parts, prompt)
	if err != nil {
		return "", nil, err
	}
	return text, ready, nil
}

func (a *Analyzer) converse(ctx context.Context, spec ModelSpec, parts []Part, prompt string) (string, error) {
	ctx = services.WithStage(ctx, "analyze")
	model, err := a.models.Get(ctx, spec)
	if err != nil {
		return "", ensureMarked(err, services.ErrAnalysis, "model", spec.Name)
	}
	text, err := model.Analyze(ctx, parts, prompt)
	if err != nil {
		return "", ensureMarked(err, services.ErrAnalysis, "send", spec.Name)
	}
	return text, nil
}

// deleteAssets removes uploaded assets best effort. It runs after the request
// context may have been cancelled, so it uses a detached context.
func (a *Analyzer) deleteAssets(ctx context.Context, assets []Asset) {
	if len(assets) == 0 {
		return
	}
	logger := logging.WithContext(ctx, a.logger)
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteCleanupTimeout)
	defer cancel()
	for _, asset := range assets {
		if err := a.backend.DeleteAsset(cleanupCtx, asset.Name); err != nil {
			logger.Warn("delete remote asset failed", logging.String("asset", asset.Name), logging.Error(err))
			continue
		}
		logger.Debug("deleted remote asset", logging.String("asset", asset.Name))
	}
}
