package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"videolens/internal/analysis"
	"videolens/internal/config"
	"videolens/internal/logging"
	"videolens/internal/notifications"
	"videolens/internal/services"
)

const notifyTimeout = 15 * time.Second

type analyzeOptions struct {
	url             string
	model           string
	instruction     string
	instructionFile string
	prompt          string
	promptFile      string
	output          string
	jsonOutput      bool
	showAssets      bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var opts analyzeOptions

	cmd := &cobra.Command{
		Use:   "analyze [FILE...]",
		Short: "Analyze video files or a video URL",
		Long: `Analyze uploads each FILE to Gemini, waits until processing finishes and
prints the model's markdown analysis. With --url the model fetches the video
itself and nothing is uploaded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, ctx, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.url, "url", "", "Video URL to analyze instead of files")
	flags.StringVarP(&opts.model, "model", "m", "", "Model name (must be allow-listed)")
	flags.StringVar(&opts.instruction, "system-instruction", "", "System instruction (empty is allowed)")
	flags.StringVar(&opts.instructionFile, "system-instruction-file", "", "Read the system instruction from a file")
	flags.StringVarP(&opts.prompt, "prompt", "p", "", "Prompt sent after the videos (empty is allowed)")
	flags.StringVar(&opts.promptFile, "prompt-file", "", "Read the prompt from a file")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the analysis to this file instead of stdout")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Print a JSON result with metadata")
	flags.BoolVar(&opts.showAssets, "show-assets", false, "Print a table of uploaded assets to stderr")
	cmd.MarkFlagsMutuallyExclusive("system-instruction", "system-instruction-file")
	cmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
	return cmd
}

func runAnalyze(cmd *cobra.Command, ctx *commandContext, opts analyzeOptions, args []string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	url := strings.TrimSpace(opts.url)
	switch {
	case url != "" && len(args) > 0:
		return validationError("provide either files or --url, not both")
	case url == "" && len(args) == 0:
		return validationError("provide at least one file or --url")
	}

	spec, err := modelSpecFromFlags(cmd, cfg, opts)
	if err != nil {
		return err
	}
	prompt, err := textFromFlags(cmd, "prompt", opts.prompt, opts.promptFile, cfg.Prompts.InputPrompt)
	if err != nil {
		return err
	}

	req := analysis.Request{Model: spec, Prompt: prompt}
	if url != "" {
		req.Source = analysis.URLSource{URL: url}
	} else {
		files, closeFiles, err := openInputs(cfg, args)
		if err != nil {
			return err
		}
		defer closeFiles()
		req.Source = analysis.FileSet{Files: files}
	}

	runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	requestID := uuid.NewString()
	runCtx = services.WithRequestID(runCtx, requestID)

	backend, cfg, logger, err := ctx.openBackend(runCtx)
	if err != nil {
		return err
	}
	defer backend.Close()

	indicator := newWaitIndicator(cmd.ErrOrStderr(), "analyzing with "+spec.Name)
	defer indicator.finish()
	analyzer := newAnalyzer(backend, cfg, logger, indicator.update)
	notifier := notifications.NewService(cfg)

	result, err := analyzer.Analyze(runCtx, req)
	indicator.finish()
	if err != nil {
		notifyQuietly(runCtx, logger, func(nctx context.Context) error {
			return notifier.NotifyError(nctx, err, "analyze")
		})
		return err
	}
	notifyQuietly(runCtx, logger, func(nctx context.Context) error {
		return notifier.NotifyAnalysisCompleted(nctx, summaryFor(req, result))
	})

	if opts.showAssets && len(result.Assets) > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), renderAssets(result.Assets))
	}
	return writeResult(cmd.OutOrStdout(), opts, result, requestID)
}

// newAnalyzer wires the poller policy and staging settings from cfg. The model
// cache it builds lives as long as the returned analyzer.
func newAnalyzer(backend analysis.Backend, cfg *config.Config, logger *slog.Logger, progress func(analysis.Asset, time.Duration)) *analysis.Analyzer {
	poller := analysis.NewPoller(backend,
		analysis.WithInterval(cfg.PollInterval()),
		analysis.WithBackoff(cfg.Polling.BackoffMultiplier, cfg.PollMaxInterval()),
		analysis.WithMaxWait(cfg.PollMaxWait()),
		analysis.WithProgress(progress),
		analysis.WithPollerLogger(logger),
	)
	return analysis.New(backend,
		analysis.WithModelCache(analysis.NewModelCache(backend.NewModel)),
		analysis.WithPoller(poller),
		analysis.WithTempDir(cfg.Uploads.TempDir),
		analysis.WithRemoteCleanup(cfg.Uploads.DeleteRemote),
		analysis.WithLogger(logger),
	)
}

func modelSpecFromFlags(cmd *cobra.Command, cfg *config.Config, opts analyzeOptions) (analysis.ModelSpec, error) {
	model := strings.TrimSpace(opts.model)
	if model == "" {
		model = cfg.Gemini.Model
	}
	if !cfg.ModelAllowed(model) {
		return analysis.ModelSpec{}, validationError(fmt.Sprintf("model %q is not allowed (choose one of: %s)",
			model, strings.Join(cfg.Gemini.AllowedModels, ", ")))
	}
	instruction, err := textFromFlags(cmd, "system-instruction", opts.instruction, opts.instructionFile, cfg.Prompts.SystemInstruction)
	if err != nil {
		return analysis.ModelSpec{}, err
	}
	return analysis.ModelSpec{
		Name: model,
		Generation: analysis.GenerationConfig{
			Temperature:      cfg.Generation.Temperature,
			TopP:             cfg.Generation.TopP,
			TopK:             cfg.Generation.TopK,
			MaxOutputTokens:  cfg.Generation.MaxOutputTokens,
			ResponseMIMEType: cfg.Generation.ResponseMIMEType,
		},
		SystemInstruction: instruction,
	}, nil
}

// textFromFlags resolves a text option: the file flag wins, then the inline
// flag when it was given (even empty), then the configured default.
func textFromFlags(cmd *cobra.Command, name, inline, file, fallback string) (string, error) {
	if path := strings.TrimSpace(file); path != "" {
		expanded, err := config.ExpandPath(path)
		if err != nil {
			return "", validationError(fmt.Sprintf("resolve --%s-file: %v", name, err))
		}
		data, err := os.ReadFile(expanded)
		if err != nil {
			return "", services.Wrap(services.ErrValidation, "cli", "read --"+name+"-file", expanded, err)
		}
		return strings.TrimRight(string(data), "\n"), nil
	}
	if cmd.Flags().Changed(name) {
		return inline, nil
	}
	return fallback, nil
}

func openInputs(cfg *config.Config, paths []string) ([]analysis.InputFile, func(), error) {
	files := make([]analysis.InputFile, 0, len(paths))
	opened := make([]*os.File, 0, len(paths))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, path := range paths {
		if !cfg.ExtensionAllowed(path) {
			closeAll()
			return nil, func() {}, validationError(fmt.Sprintf("%s: unsupported extension (allowed: %s)",
				path, strings.Join(cfg.Uploads.AllowedExtensions, ", ")))
		}
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			return nil, func() {}, services.Wrap(services.ErrValidation, "cli", "open input", path, err)
		}
		if info, err := f.Stat(); err == nil && info.IsDir() {
			_ = f.Close()
			closeAll()
			return nil, func() {}, validationError(path + " is a directory")
		}
		opened = append(opened, f)
		files = append(files, analysis.InputFile{Name: filepath.Base(path), Data: f})
	}
	return files, closeAll, nil
}

// jsonResult is the --json output shape. Field names match the web API's
// analyze response so scripts can consume either.
type jsonResult struct {
	RequestID string      `json:"request_id"`
	Model     string      `json:"model"`
	Text      string      `json:"text"`
	Assets    []jsonAsset `json:"assets"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

type jsonAsset struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	MIMEType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

func newJSONResult(result analysis.Result, requestID string) jsonResult {
	assets := make([]jsonAsset, 0, len(result.Assets))
	for _, asset := range result.Assets {
		assets = append(assets, jsonAsset{
			Name:        asset.Name,
			DisplayName: asset.Label(),
			MIMEType:    asset.MIMEType,
			SizeBytes:   asset.SizeBytes,
		})
	}
	return jsonResult{
		RequestID: requestID,
		Model:     result.Model,
		Text:      result.Text,
		Assets:    assets,
		ElapsedMS: result.Elapsed.Milliseconds(),
	}
}

func writeResult(stdout io.Writer, opts analyzeOptions, result analysis.Result, requestID string) error {
	var payload []byte
	if opts.jsonOutput {
		encoded, err := json.MarshalIndent(newJSONResult(result, requestID), "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		payload = append(encoded, '\n')
	} else {
		payload = []byte(result.Text)
		if !strings.HasSuffix(result.Text, "\n") {
			payload = append(payload, '\n')
		}
	}

	if path := strings.TrimSpace(opts.output); path != "" {
		if err := os.WriteFile(path, payload, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(stdout, "Wrote analysis to %s (%s)\n", path, humanize.Bytes(uint64(len(payload))))
		return nil
	}
	_, err := stdout.Write(payload)
	return err
}

func renderAssets(assets []analysis.Asset) string {
	rows := make([][]string, 0, len(assets))
	for _, asset := range assets {
		rows = append(rows, []string{
			asset.Label(),
			asset.Name,
			asset.MIMEType,
			humanize.Bytes(uint64(asset.SizeBytes)),
			string(asset.State),
		})
	}
	return renderTable(
		[]column{left("File"), left("Asset"), left("MIME type"), right("Size"), left("State")},
		rows,
	)
}

func summaryFor(req analysis.Request, result analysis.Result) notifications.AnalysisSummary {
	summary := notifications.AnalysisSummary{Model: result.Model, Elapsed: result.Elapsed}
	switch src := req.Source.(type) {
	case analysis.URLSource:
		summary.Source = src.URL
	case analysis.FileSet:
		summary.Files = len(src.Files)
	}
	return summary
}

func notifyQuietly(ctx context.Context, logger *slog.Logger, send func(context.Context) error) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := send(nctx); err != nil {
		logging.WithContext(ctx, logger).Warn("notification failed", logging.Error(err))
	}
}

func validationError(message string) error {
	return services.Wrap(services.ErrValidation, "cli", "", message, nil)
}
