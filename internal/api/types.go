package api

// AssetView is the transport representation of an uploaded asset.
type AssetView struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	MIMEType    string `json:"mime_type"`
	SizeBytes   int64  `json:"size_bytes"`
	Size        string `json:"size"`
}

// AnalyzeResponse is returned by POST /api/analyze.
type AnalyzeResponse struct {
	RequestID string      `json:"request_id"`
	Model     string      `json:"model"`
	Text      string      `json:"text"`
	Assets    []AssetView `json:"assets"`
	ElapsedMS int64       `json:"elapsed_ms"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ModelView describes one selectable model.
type ModelView struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// ModelsResponse is returned by GET /api/models.
type ModelsResponse struct {
	Models []ModelView `json:"models"`
}

// DefaultsResponse is returned by GET /api/defaults.
type DefaultsResponse struct {
	Model             string   `json:"model"`
	SystemInstruction string   `json:"system_instruction"`
	Prompt            string   `json:"prompt"`
	AllowedExtensions []string `json:"allowed_extensions"`
	MaxUploadMB       int      `json:"max_upload_mb"`
}

// HealthResponse is returned by GET /healthz.
type HealthResponse struct {
	Status string `json:"status"`
}
