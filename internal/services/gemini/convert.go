package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"videolens/internal/analysis"
	"videolens/internal/services"
)

func applySpec(gm *genai.GenerativeModel, spec analysis.ModelSpec) {
	gen := spec.Generation
	gm.SetTemperature(gen.Temperature)
	gm.SetTopP(gen.TopP)
	gm.SetTopK(gen.TopK)
	gm.SetMaxOutputTokens(gen.MaxOutputTokens)
	gm.ResponseMIMEType = gen.ResponseMIMEType
	if spec.SystemInstruction != "" {
		gm.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(spec.SystemInstruction)}}
	}
}

func stateFromFile(state genai.FileState) analysis.AssetState {
	switch state {
	case genai.FileStateProcessing:
		return analysis.StateProcessing
	case genai.FileStateActive:
		return analysis.StateActive
	case genai.FileStateFailed:
		return analysis.StateFailed
	default:
		return analysis.StateUnknown
	}
}

func assetFromFile(file *genai.File) analysis.Asset {
	if file == nil {
		return analysis.Asset{State: analysis.StateUnknown}
	}
	return analysis.Asset{
		Name:        file.Name,
		DisplayName: file.DisplayName,
		URI:         file.URI,
		MIMEType:    file.MIMEType,
		SizeBytes:   file.SizeBytes,
		State:       stateFromFile(file.State),
	}
}

// toContent builds the first user turn in part order.
func toContent(parts []analysis.Part) (*genai.Content, error) {
	content := &genai.Content{Role: "user", Parts: make([]genai.Part, 0, len(parts))}
	for i, part := range parts {
		switch p := part.(type) {
		case analysis.TextPart:
			content.Parts = append(content.Parts, genai.Text(string(p)))
		case analysis.Asset:
			if p.URI == "" {
				return nil, fmt.Errorf("part %d: asset %s has no uri", i, p.Name)
			}
			content.Parts = append(content.Parts, genai.FileData{MIMEType: p.MIMEType, URI: p.URI})
		default:
			return nil, fmt.Errorf("part %d: unsupported type %T", i, part)
		}
	}
	return content, nil
}

// responseText concatenates the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return b.String()
}

// replyText returns the model's text as is. Only a reply with no text at all
// is an error; whitespace is the model's answer.
func replyText(resp *genai.GenerateContentResponse, model string) (string, error) {
	text := responseText(resp)
	if text == "" {
		return "", services.Wrap(services.ErrAnalysis, "gemini", "send",
			fmt.Sprintf("empty response from %s (%s)", model, finishReason(resp)), nil)
	}
	return text, nil
}

func finishReason(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		if resp != nil && resp.PromptFeedback != nil {
			return "prompt blocked: " + resp.PromptFeedback.BlockReason.String()
		}
		return "no candidates"
	}
	return "finish reason " + resp.Candidates[0].FinishReason.String()
}

func detailsFromInfo(info *genai.ModelInfo) ModelDetails {
	if info == nil {
		return ModelDetails{}
	}
	return ModelDetails{
		Name:             strings.TrimPrefix(info.Name, "models/"),
		DisplayName:      info.DisplayName,
		Version:          info.Version,
		InputTokenLimit:  info.InputTokenLimit,
		OutputTokenLimit: info.OutputTokenLimit,
	}
}

func supportsGeneration(info *genai.ModelInfo) bool {
	if info == nil {
		return false
	}
	for _, method := range info.SupportedGenerationMethods {
		if method == "generateContent" {
			return true
		}
	}
	return false
}

// classify tags an SDK error. Rejected credentials become configuration
// errors whatever the operation.
func classify(err error, marker error, operation, message string) error {
	if err == nil {
		return nil
	}
	if rejectedCredentials(err) {
		marker = services.ErrConfiguration
		if message == "" {
			message = "api key rejected"
		} else {
			message += ": api key rejected"
		}
	}
	return services.Wrap(marker, "gemini", operation, message, err)
}

func rejectedCredentials(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden {
			return true
		}
		return apiErr.Code == http.StatusBadRequest && mentionsAPIKey(apiErr.Message)
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.Unauthenticated, codes.PermissionDenied:
			return true
		case codes.InvalidArgument:
			return mentionsAPIKey(st.Message())
		}
	}
	return false
}

func mentionsAPIKey(message string) bool {
	message = strings.ToLower(message)
	return strings.Contains(message, "api key not valid") || strings.Contains(message, "api_key_invalid")
}
