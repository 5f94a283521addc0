package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"videolens/internal/logs"
)

const sample = `{"ts":"2026-01-02T10:00:00Z","level":"info","msg":"server listening"}
{"ts":"2026-01-02T10:00:01Z","level":"debug","msg":"uploading","correlation_id":"req-1"}
{"ts":"2026-01-02T10:00:02Z","level":"warn","msg":"poll slow","correlation_id":"req-1"}
{"ts":"2026-01-02T10:00:03Z","level":"error","msg":"analysis failed","correlation_id":"req-2"}
`

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videolens.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestLastReturnsNewestLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2, logs.Filter{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 2 || lines[0] != "b" || lines[1] != "c" {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "none.log"), 10, logs.Filter{})
	if err != nil || len(lines) != 0 || offset != 0 {
		t.Fatalf("expected empty result, got %v %d %v", lines, offset, err)
	}
}

func TestLastLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "done\npartial")

	lines, offset, err := logs.Last(path, 10, logs.Filter{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if len(lines) != 1 || lines[0] != "done" || offset != 5 {
		t.Fatalf("unexpected result %#v offset %d", lines, offset)
	}
}

func TestFilterMatch(t *testing.T) {
	path := writeLog(t, sample)

	tests := []struct {
		name   string
		filter logs.Filter
		want   []string
	}{
		{"request", logs.Filter{RequestID: "req-1"}, []string{"uploading", "poll slow"}},
		{"level", logs.Filter{MinLevel: "warn"}, []string{"poll slow", "analysis failed"}},
		{"both", logs.Filter{RequestID: "req-1", MinLevel: "warn"}, []string{"poll slow"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			lines, _, err := logs.Last(path, 10, tc.filter)
			if err != nil {
				t.Fatalf("Last: %v", err)
			}
			if len(lines) != len(tc.want) {
				t.Fatalf("expected %d lines, got %#v", len(tc.want), lines)
			}
			for i, msg := range tc.want {
				if !strings.Contains(lines[i], `"msg":"`+msg+`"`) {
					t.Fatalf("line %d = %s, want msg %q", i, lines[i], msg)
				}
			}
		})
	}

	if (logs.Filter{RequestID: "req-1"}).Match("plain text") {
		t.Fatal("non-json lines must not match a request filter")
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 1, logs.Filter{})
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, logs.Filter{}, 20*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
			if line == "later" {
				cancel()
			}
		})
	}()

	time.Sleep(50 * time.Millisecond)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("later\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
	_ = f.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Follow: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not return")
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != "later" {
		t.Fatalf("unexpected followed lines: %#v", got)
	}
}
