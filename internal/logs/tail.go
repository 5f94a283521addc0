package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"videolens/internal/logging"
)

const (
	defaultFollowInterval = 250 * time.Millisecond
	maxLineBytes          = 1024 * 1024
)

// Filter selects log lines by request and severity.
type Filter struct {
	RequestID string
	MinLevel  string
}

func (f Filter) empty() bool {
	return strings.TrimSpace(f.RequestID) == "" && strings.TrimSpace(f.MinLevel) == ""
}

// Match reports whether a raw log line passes the filter.
func (f Filter) Match(line string) bool {
	if f.empty() {
		return true
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(line), &record); err != nil {
		return false
	}
	if id := strings.TrimSpace(f.RequestID); id != "" {
		if got, _ := record[logging.FieldCorrelationID].(string); got != id {
			return false
		}
	}
	if min := strings.TrimSpace(f.MinLevel); min != "" {
		var want, got slog.Level
		if err := want.UnmarshalText([]byte(min)); err != nil {
			return false
		}
		raw, _ := record[slog.LevelKey].(string)
		if err := got.UnmarshalText([]byte(raw)); err != nil || got < want {
			return false
		}
	}
	return true
}

// Last returns up to limit of the newest lines matching filter and the file
// size at the time of reading, which is the offset to follow from. A missing
// file yields no lines and offset zero.
func Last(path string, limit int, filter Filter) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, info.Size(), nil
	}

	ring := make([]string, limit)
	count, next := 0, 0
	offset, err := scanLines(file, func(line string) {
		if !filter.Match(line) {
			return
		}
		ring[next] = line
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, 0, err
	}

	lines := make([]string, 0, count)
	start := 0
	if count == limit {
		start = next
	}
	for i := 0; i < count; i++ {
		lines = append(lines, ring[(start+i)%limit])
	}
	return lines, offset, nil
}

// Follow emits lines appended to path after offset until ctx ends. A file that
// shrinks below the offset is treated as rotated and read from the start.
// Cancellation is not an error.
func Follow(ctx context.Context, path string, offset int64, filter Filter, interval time.Duration, emit func(string)) error {
	if interval <= 0 {
		interval = defaultFollowInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, func(line string) {
			if filter.Match(line) {
				emit(line)
			}
		})
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}
	consumed, err := scanLines(file, emit)
	if err != nil {
		return offset, err
	}
	return offset + consumed, nil
}

// scanLines emits each complete line and reports how many bytes were consumed.
// A trailing partial line is left for the next read.
func scanLines(r io.Reader, emit func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			continue
		}
		emit(strings.TrimRight(line, "\r\n"))
	}
}
