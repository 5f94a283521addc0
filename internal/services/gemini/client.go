package gemini

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"videolens/internal/analysis"
	"videolens/internal/logging"
	"videolens/internal/services"
)

// Client talks to the Gemini API on behalf of the analyzer.
type Client struct {
	genai      *genai.Client
	logger     *slog.Logger
	clientOpts []option.ClientOption
}

// Option customizes the client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClientOptions appends SDK client options, such as a custom endpoint.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *Client) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

// New constructs a client authenticated with apiKey.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "init", "api key required", nil)
	}
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "gemini")

	clientOpts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, c.clientOpts...)
	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "gemini", "init", "create client", err)
	}
	c.genai = client
	return c, nil
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil || c.genai == nil {
		return nil
	}
	return c.genai.Close()
}

// NewModel builds a handle configured from spec. No request is made.
func (c *Client) NewModel(_ context.Context, spec analysis.ModelSpec) (analysis.Model, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, services.Wrap(services.ErrValidation, "gemini", "model", "model name required", nil)
	}
	gm := c.genai.GenerativeModel(name)
	applySpec(gm, spec)
	c.logger.Debug("model handle created",
		logging.String("model", name),
		logging.Bool("system_instruction", spec.SystemInstruction != ""),
	)
	return &Model{name: name, model: gm, logger: c.logger}, nil
}

// Upload sends the file at path to the Files API.
func (c *Client) Upload(ctx context.Context, path, displayName, mimeType string) (analysis.Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return analysis.Asset{}, services.Wrap(services.ErrUpload, "gemini", "upload", "open staged file", err)
	}
	defer f.Close()

	file, err := c.genai.UploadFile(ctx, "", f, &genai.UploadFileOptions{
		DisplayName: displayName,
		MIMEType:    mimeType,
	})
	if err != nil {
		return analysis.Asset{}, classify(err, services.ErrUpload, "upload", displayName)
	}
	return assetFromFile(file), nil
}

// GetAsset returns the current state of an uploaded file.
func (c *Client) GetAsset(ctx context.Context, name string) (analysis.Asset, error) {
	file, err := c.genai.GetFile(ctx, name)
	if err != nil {
		return analysis.Asset{}, classify(err, services.ErrUpload, "get file", name)
	}
	return assetFromFile(file), nil
}

// DeleteAsset removes an uploaded file.
func (c *Client) DeleteAsset(ctx context.Context, name string) error {
	if err := c.genai.DeleteFile(ctx, name); err != nil {
		return classify(err, services.ErrUpload, "delete file", name)
	}
	return nil
}

// ModelDetails is the subset of remote model metadata shown to users.
type ModelDetails struct {
	Name             string
	DisplayName      string
	Version          string
	InputTokenLimit  int32
	OutputTokenLimit int32
}

// ModelInfo fetches metadata for one model. It fails when the key is rejected
// or the model does not exist.
func (c *Client) ModelInfo(ctx context.Context, name string) (ModelDetails, error) {
	info, err := c.genai.GenerativeModel(name).Info(ctx)
	if err != nil {
		return ModelDetails{}, classify(err, services.ErrExternalService, "model info", name)
	}
	return detailsFromInfo(info), nil
}

// ListModels returns every model the key can see that supports content
// generation.
func (c *Client) ListModels(ctx context.Context) ([]ModelDetails, error) {
	var models []ModelDetails
	it := c.genai.ListModels(ctx)
	for {
		info, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, classify(err, services.ErrExternalService, "list models", "")
		}
		if !supportsGeneration(info) {
			continue
		}
		models = append(models, detailsFromInfo(info))
	}
	return models, nil
}

// Model is a configured handle; each Analyze call opens a fresh chat.
type Model struct {
	name   string
	model  *genai.GenerativeModel
	logger *slog.Logger
}

// Analyze seeds a chat with parts as the first user turn, sends prompt and
// returns the reply text.
func (m *Model) Analyze(ctx context.Context, parts []analysis.Part, prompt string) (string, error) {
	content, err := toContent(parts)
	if err != nil {
		return "", services.Wrap(services.ErrAnalysis, "gemini", "send", m.name, err)
	}
	session := m.model.StartChat()
	session.History = []*genai.Content{content}

	logger := logging.WithContext(ctx, m.logger)
	logger.Debug("sending prompt",
		logging.String("model", m.name),
		logging.Int("parts", len(parts)),
		logging.Int("prompt_chars", len(prompt)),
	)
	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err, services.ErrAnalysis, "send", m.name)
	}
	text, err := replyText(resp, m.name)
	if err != nil {
		return "", err
	}
	if usage := resp.UsageMetadata; usage != nil {
		logger.Debug("response received",
			logging.String("model", m.name),
			logging.Int("prompt_tokens", int(usage.PromptTokenCount)),
			logging.Int("response_tokens", int(usage.CandidatesTokenCount)),
		)
	}
	return text, nil
}
