package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"videolens/internal/config"
	"videolens/internal/services"
)

const userAgent = "videolens/0.1.0"

// Service defines the notification surface exposed to the CLI and HTTP server.
type Service interface {
	NotifyAnalysisCompleted(ctx context.Context, summary AnalysisSummary) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// AnalysisSummary describes one finished analysis.
type AnalysisSummary struct {
	Source  string
	Model   string
	Files   int
	Elapsed time.Duration
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:     topic,
		client:       client,
		sendAnalysis: cfg.Notifications.Analysis,
		sendErrors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	sendAnalysis bool
	sendErrors   bool
}

func (n *ntfyService) NotifyAnalysisCompleted(ctx context.Context, summary AnalysisSummary) error {
	if !n.sendAnalysis {
		return nil
	}
	source := strings.TrimSpace(summary.Source)
	if source == "" {
		source = fmt.Sprintf("%d file(s)", summary.Files)
	}
	message := fmt.Sprintf("🎬 Analysis ready: %s", source)
	if model := strings.TrimSpace(summary.Model); model != "" {
		message = fmt.Sprintf("%s\nModel: %s", message, model)
	}
	if elapsed := summary.Elapsed.Round(time.Second); elapsed > 0 {
		message = fmt.Sprintf("%s\nTook: %s", message, elapsed)
	}
	data := payload{
		title:   "videolens - Analysis Complete",
		message: message,
		tags:    []string{"videolens", "analysis", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.sendErrors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	tags := []string{"videolens", "error"}
	if kind := services.Kind(err); kind != "" {
		tags = append(tags, kind)
	}
	data := payload{
		title:    "videolens - Error",
		message:  builder.String(),
		tags:     tags,
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "videolens - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"videolens", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyAnalysisCompleted(context.Context, AnalysisSummary) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                         { return nil }
