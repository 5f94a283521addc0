package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"

	"videolens/internal/analysis"
	"videolens/internal/config"
	"videolens/internal/services"
	"videolens/internal/textutil"
)

// FromResult converts an analysis result into its transport form.
func FromResult(result analysis.Result, requestID string) AnalyzeResponse {
	assets := make([]AssetView, 0, len(result.Assets))
	for _, asset := range result.Assets {
		assets = append(assets, FromAsset(asset))
	}
	return AnalyzeResponse{
		RequestID: requestID,
		Model:     result.Model,
		Text:      result.Text,
		Assets:    assets,
		ElapsedMS: result.Elapsed.Milliseconds(),
	}
}

// FromAsset converts an uploaded asset into its transport form.
func FromAsset(asset analysis.Asset) AssetView {
	size := ""
	if asset.SizeBytes > 0 {
		size = humanize.Bytes(uint64(asset.SizeBytes))
	}
	return AssetView{
		Name:        asset.Name,
		DisplayName: asset.Label(),
		MIMEType:    asset.MIMEType,
		SizeBytes:   asset.SizeBytes,
		Size:        size,
	}
}

// ModelsFromConfig lists the allow-listed models with the configured default first.
func ModelsFromConfig(cfg *config.Config) ModelsResponse {
	models := make([]ModelView, 0, len(cfg.Gemini.AllowedModels))
	models = append(models, ModelView{Name: cfg.Gemini.Model, Label: textutil.ModelLabel(cfg.Gemini.Model), Default: true})
	for _, name := range cfg.Gemini.AllowedModels {
		if name == cfg.Gemini.Model {
			continue
		}
		models = append(models, ModelView{Name: name, Label: textutil.ModelLabel(name)})
	}
	return ModelsResponse{Models: models}
}

// DefaultsFromConfig reports the values the page pre-fills.
func DefaultsFromConfig(cfg *config.Config) DefaultsResponse {
	return DefaultsResponse{
		Model:             cfg.Gemini.Model,
		SystemInstruction: cfg.Prompts.SystemInstruction,
		Prompt:            cfg.Prompts.InputPrompt,
		AllowedExtensions: append([]string(nil), cfg.Uploads.AllowedExtensions...),
		MaxUploadMB:       cfg.Uploads.MaxUploadMB,
	}
}

// StatusForError maps an error's kind to an HTTP status code.
func StatusForError(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.Canceled):
		return statusClientClosedRequest
	}
	switch services.Kind(err) {
	case "validation_error":
		return http.StatusBadRequest
	case "processing_failed":
		return http.StatusUnprocessableEntity
	case "upload_error", "analysis_error", "external_service_error":
		return http.StatusBadGateway
	case "timeout":
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// statusClientClosedRequest is the de facto code for a request abandoned by
// the client before a response was written.
const statusClientClosedRequest = 499

func elapsedSince(start time.Time) time.Duration {
	return time.Since(start).Round(time.Millisecond)
}
