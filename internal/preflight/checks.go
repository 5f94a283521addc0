package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"videolens/internal/config"
	"videolens/internal/services"
)

const modelCheckTimeout = 30 * time.Second

// CheckAPIKey reports whether a Gemini key is configured. The key itself is
// never echoed; only its source and last characters.
func CheckAPIKey(cfg *config.Config) Result {
	const name = "Gemini API key"
	if err := cfg.RequireAPIKey(); err != nil {
		return Result{Name: name, Detail: "missing (set GEMINI_API_KEY or gemini.api_key)"}
	}
	return Result{Name: name, Passed: true, Detail: "configured (" + cfg.Redacted().Gemini.APIKey + ")"}
}

// CheckModel verifies that the API key is accepted and the model exists.
// It uses a 30-second timeout and a single attempt.
func CheckModel(ctx context.Context, prober ModelProber, model string) Result {
	name := "Model " + model

	checkCtx, cancel := context.WithTimeout(ctx, modelCheckTimeout)
	defer cancel()

	details, err := prober.ModelInfo(checkCtx, model)
	if err != nil {
		return Result{Name: name, Detail: summarizeModelError(err)}
	}
	detail := "reachable"
	if details.OutputTokenLimit > 0 {
		detail = fmt.Sprintf("reachable (input %s / output %s tokens)",
			humanize.Comma(int64(details.InputTokenLimit)),
			humanize.Comma(int64(details.OutputTokenLimit)),
		)
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies that the filesystem holding path can stage at least
// minFree bytes.
func CheckFreeSpace(name, path string, minFree uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minFree {
		return Result{Name: name, Detail: fmt.Sprintf("%s free, need %s", humanize.Bytes(free), humanize.Bytes(minFree))}
	}
	return Result{Name: name, Passed: true, Detail: humanize.Bytes(free) + " free"}
}

// CheckNotifications reports whether the ntfy topic is usable. Notifications
// are optional, so an empty topic passes.
func CheckNotifications(cfg *config.Config) Result {
	const name = "Notifications"
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return Result{Name: name, Passed: true, Detail: "Disabled"}
	}
	parsed, err := url.Parse(topic)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Result{Name: name, Detail: fmt.Sprintf("invalid ntfy topic url %q", topic)}
	}
	return Result{Name: name, Passed: true, Detail: "ntfy " + parsed.Host}
}

// summarizeModelError produces a human-readable summary for model check failures.
func summarizeModelError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (Gemini API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (Gemini API unreachable)"
	}
	if errors.Is(err, services.ErrConfiguration) {
		return "API key rejected"
	}
	return err.Error()
}
