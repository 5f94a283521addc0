package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"videolens/internal/analysis"
	"videolens/internal/logging"
	"videolens/internal/notifications"
	"videolens/internal/services"
)

const (
	multipartMemory  = 32 << 20
	notifyTimeout    = 15 * time.Second
	fieldFiles       = "files"
	fieldURL         = "url"
	fieldModel       = "model"
	fieldInstruction = "system_instruction"
	fieldPrompt      = "prompt"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, ModelsFromConfig(s.cfg))
}

func (s *Server) handleDefaults(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, DefaultsFromConfig(s.cfg))
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithContext(ctx, s.logger)

	if err := parseForm(r); err != nil {
		s.writeError(w, r, StatusForError(err), err)
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	req, closeFiles, err := s.buildRequest(r)
	defer closeFiles()
	if err != nil {
		s.writeError(w, r, StatusForError(err), err)
		return
	}

	result, err := s.analyzer.Analyze(ctx, req)
	if err != nil {
		logger.Warn("analysis failed",
			logging.ErrorKind(err),
			logging.Error(err),
		)
		s.notify(ctx, func(nctx context.Context) error {
			return s.notifier.NotifyError(nctx, err, "analysis request")
		})
		s.writeError(w, r, StatusForError(err), err)
		return
	}

	requestID, _ := services.RequestIDFromContext(ctx)
	logger.Info("analysis complete",
		logging.String("model", result.Model),
		logging.Int("assets", len(result.Assets)),
		logging.Int("chars", len(result.Text)),
		logging.Duration("elapsed", result.Elapsed),
	)
	s.notify(ctx, func(nctx context.Context) error {
		return s.notifier.NotifyAnalysisCompleted(nctx, summaryFor(req, result))
	})
	s.writeJSON(w, r, http.StatusOK, FromResult(result, requestID))
}

// parseForm accepts multipart bodies and, for URL-only requests, plain
// url-encoded forms.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return services.Wrap(services.ErrValidation, "api", "parse form", "", err)
}

func (s *Server) buildRequest(r *http.Request) (analysis.Request, func(), error) {
	noop := func() {}
	form := r.PostForm

	url := strings.TrimSpace(form.Get(fieldURL))
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File[fieldFiles]
	}
	switch {
	case url != "" && len(headers) > 0:
		return analysis.Request{}, noop, validationError("provide either files or a url, not both")
	case url == "" && len(headers) == 0:
		return analysis.Request{}, noop, validationError("provide at least one file or a url")
	}

	model := strings.TrimSpace(form.Get(fieldModel))
	if model == "" {
		model = s.cfg.Gemini.Model
	}
	if !s.cfg.ModelAllowed(model) {
		return analysis.Request{}, noop, validationError(fmt.Sprintf("model %q is not allowed", model))
	}

	instruction := s.cfg.Prompts.SystemInstruction
	if values, ok := form[fieldInstruction]; ok {
		instruction = strings.Join(values, "\n")
	}
	prompt := s.cfg.Prompts.InputPrompt
	if values, ok := form[fieldPrompt]; ok {
		prompt = strings.Join(values, "\n")
	}

	req := analysis.Request{
		Model: analysis.ModelSpec{
			Name: model,
			Generation: analysis.GenerationConfig{
				Temperature:      s.cfg.Generation.Temperature,
				TopP:             s.cfg.Generation.TopP,
				TopK:             s.cfg.Generation.TopK,
				MaxOutputTokens:  s.cfg.Generation.MaxOutputTokens,
				ResponseMIMEType: s.cfg.Generation.ResponseMIMEType,
			},
			SystemInstruction: instruction,
		},
		Prompt: prompt,
	}
	if url != "" {
		req.Source = analysis.URLSource{URL: url}
		return req, noop, nil
	}

	files := make([]analysis.InputFile, 0, len(headers))
	opened := make([]multipart.File, 0, len(headers))
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	for _, header := range headers {
		if !s.cfg.ExtensionAllowed(header.Filename) {
			closeAll()
			return analysis.Request{}, noop, validationError(fmt.Sprintf(
				"file %q has an unsupported extension (allowed: %s)",
				header.Filename, strings.Join(s.cfg.Uploads.AllowedExtensions, ", "),
			))
		}
		f, err := header.Open()
		if err != nil {
			closeAll()
			return analysis.Request{}, noop, services.Wrap(services.ErrValidation, "api", "open upload", header.Filename, err)
		}
		opened = append(opened, f)
		files = append(files, analysis.InputFile{Name: header.Filename, Data: f})
	}
	req.Source = analysis.FileSet{Files: files}
	return req, closeAll, nil
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

// notify delivers a notification without letting a slow or failing topic
// affect the response.
func (s *Server) notify(ctx context.Context, send func(context.Context) error) {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()
	if err := send(nctx); err != nil {
		logging.WithContext(ctx, s.logger).Warn("notification failed", logging.Error(err))
	}
}

func validationError(message string) error {
	return services.Wrap(services.ErrValidation, "api", "request", message, nil)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.WithContext(r.Context(), s.logger).Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestID, _ := services.RequestIDFromContext(r.Context())
	kind := services.Kind(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		kind = "validation_error"
		err = fmt.Errorf("request body exceeds %d MB", s.cfg.Uploads.MaxUploadMB)
	}
	s.writeJSON(w, r, status, ErrorResponse{Error: err.Error(), Kind: kind, RequestID: requestID})
}
