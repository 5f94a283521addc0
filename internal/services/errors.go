package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration    = errors.New("configuration error")
	ErrValidation       = errors.New("validation error")
	ErrUpload           = errors.New("upload error")
	ErrProcessingFailed = errors.New("processing failed")
	ErrAnalysis         = errors.New("analysis error")
	ErrTimeout          = errors.New("timeout")
	ErrExternalService  = errors.New("external service error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalService
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind maps an error to a stable identifier suitable for API payloads and log
// fields. Errors without a marker report an empty kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrConfiguration):
		return "config_error"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrUpload):
		return "upload_error"
	case errors.Is(err, ErrProcessingFailed):
		return "processing_failed"
	case errors.Is(err, ErrAnalysis):
		return "analysis_error"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrExternalService):
		return "external_service_error"
	default:
		return ""
	}
}

// Marked reports whether err already carries one of the exported markers.
func Marked(err error) bool {
	return Kind(err) != ""
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
