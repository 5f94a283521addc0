package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"videolens/internal/config"
	"videolens/internal/services/gemini"
	"videolens/internal/testsupport"
)

// cliBackend adds the model listing surface to the in-memory analysis backend.
type cliBackend struct {
	*testsupport.FakeBackend
	models []gemini.ModelDetails
	closed bool
}

func (b *cliBackend) ModelInfo(_ context.Context, name string) (gemini.ModelDetails, error) {
	for _, m := range b.models {
		if m.Name == name {
			return m, nil
		}
	}
	return gemini.ModelDetails{Name: name, InputTokenLimit: 1_048_576, OutputTokenLimit: 8192}, nil
}

func (b *cliBackend) ListModels(context.Context) ([]gemini.ModelDetails, error) {
	return b.models, nil
}

func (b *cliBackend) Close() error {
	b.closed = true
	return nil
}

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	backend    *cliBackend
	workDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithMaxUploadMB(1)}, opts...)...)
	cfg.Logging.Level = "error"

	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(base, "videolens.toml")
	writeTestConfig(t, configPath, cfg)

	backend := &cliBackend{FakeBackend: testsupport.NewFakeBackend("## Summary\nA cat chases a laser.")}
	previous := backendFactory
	backendFactory = func(context.Context, *config.Config, *slog.Logger) (modelBackend, error) {
		return backend, nil
	}
	t.Cleanup(func() { backendFactory = previous })

	workDir := filepath.Join(base, "videos")
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		t.Fatalf("mkdir videos: %v", err)
	}

	return &cliTestEnv{cfg: cfg, configPath: configPath, backend: backend, workDir: workDir}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := cfg.Encode()
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}
