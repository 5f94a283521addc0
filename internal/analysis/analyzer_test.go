package analysis_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"videolens/internal/analysis"
	"videolens/internal/services"
)

var testSpec = analysis.ModelSpec{
	Name:              "gemini-2.0-flash",
	Generation:        analysis.GenerationConfig{Temperature: 0.3, TopP: 0.3, TopK: 4, MaxOutputTokens: 65536, ResponseMIMEType: "text/plain"},
	SystemInstruction: "You are a video analyst.",
}

func newTestAnalyzer(t *testing.T, backend *fakeBackend, opts ...analysis.Option) (*analysis.Analyzer, string) {
	t.Helper()
	dir := t.TempDir()
	clock := newSleepRecorder()
	base := []analysis.Option{
		analysis.WithTempDir(dir),
		analysis.WithPoller(analysis.NewPoller(backend, analysis.WithSleeper(clock.Sleep), analysis.WithClock(clock.Now))),
	}
	return analysis.New(backend, append(base, opts...)...), dir
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected staging root to be empty, found %v", names)
	}
}

func TestAnalyzeURLSendsURLAsOnlyPart(t *testing.T) {
	backend := newFakeBackend("a cat video")
	analyzer, _ := newTestAnalyzer(t, backend)

	text, err := analyzer.AnalyzeURL(context.Background(), "https://example.com/v.mp4", testSpec, "Summarize")
	if err != nil {
		t.Fatalf("AnalyzeURL: %v", err)
	}
	if text != "a cat video" {
		t.Fatalf("unexpected text %q", text)
	}
	calls := backend.model.calls
	if len(calls) != 1 {
		t.Fatalf("expected one model call, got %d", len(calls))
	}
	if len(calls[0].parts) != 1 || calls[0].parts[0] != analysis.TextPart("https://example.com/v.mp4") {
		t.Fatalf("unexpected parts %#v", calls[0].parts)
	}
	if calls[0].prompt != "Summarize" {
		t.Fatalf("unexpected prompt %q", calls[0].prompt)
	}
	if len(backend.uploads) != 0 {
		t.Fatal("URL analysis must not upload")
	}
	if backend.model.spec != testSpec {
		t.Fatalf("model built for wrong spec %+v", backend.model.spec)
	}
}

func TestAnalyzeURLAllowsEmptyPromptAndInstruction(t *testing.T) {
	backend := newFakeBackend("ok")
	analyzer, _ := newTestAnalyzer(t, backend)
	spec := testSpec
	spec.SystemInstruction = ""

	if _, err := analyzer.AnalyzeURL(context.Background(), "https://example.com/v.mp4", spec, ""); err != nil {
		t.Fatalf("AnalyzeURL: %v", err)
	}
	if backend.model.calls[0].prompt != "" {
		t.Fatalf("expected empty prompt to pass through")
	}
}

func TestAnalyzeFilesUploadsInOrderAndCleansUp(t *testing.T) {
	backend := newFakeBackend("two clips")
	backend.states["files/1"] = []analysis.AssetState{analysis.StateProcessing, analysis.StateActive}
	backend.states["files/2"] = []analysis.AssetState{analysis.StateActive}
	analyzer, dir := newTestAnalyzer(t, backend)

	files := []analysis.InputFile{
		{Name: "Beach Day.MP4", Data: strings.NewReader("first")},
		{Name: "clip.mov", Data: strings.NewReader("second")},
	}
	text, err := analyzer.AnalyzeFiles(context.Background(), files, testSpec, "Compare")
	if err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	if text != "two clips" {
		t.Fatalf("unexpected text %q", text)
	}

	if len(backend.uploads) != 2 {
		t.Fatalf("expected two uploads, got %d", len(backend.uploads))
	}
	first, second := backend.uploads[0], backend.uploads[1]
	if first.displayName != "Beach Day.MP4" || first.mimeType != "video/mp4" || first.content != "first" {
		t.Fatalf("unexpected first upload %+v", first)
	}
	if second.displayName != "clip.mov" || second.mimeType != "video/mov" || second.content != "second" {
		t.Fatalf("unexpected second upload %+v", second)
	}
	if !strings.Contains(first.path, "temp_video_") {
		t.Fatalf("staged path %q missing prefix", first.path)
	}

	parts := backend.model.calls[0].parts
	if len(parts) != 2 {
		t.Fatalf("expected two parts, got %d", len(parts))
	}
	for i, want := range []string{"files/1", "files/2"} {
		asset, ok := parts[i].(analysis.Asset)
		if !ok || asset.Name != want || asset.State != analysis.StateActive {
			t.Fatalf("part %d = %#v, want active %s", i, parts[i], want)
		}
	}
	requireEmptyDir(t, dir)
	if len(backend.deleted) != 0 {
		t.Fatal("remote cleanup is off by default")
	}
}

func TestAnalyzeFilesCleansUpAfterModelFailure(t *testing.T) {
	backend := newFakeBackend("")
	backend.model.err = errors.New("quota exceeded")
	analyzer, dir := newTestAnalyzer(t, backend)

	files := []analysis.InputFile{
		{Name: "a.mp4", Data: strings.NewReader("a")},
		{Name: "b.mp4", Data: strings.NewReader("b")},
	}
	_, err := analyzer.AnalyzeFiles(context.Background(), files, testSpec, "Describe")
	if !errors.Is(err, services.ErrAnalysis) {
		t.Fatalf("expected analysis error, got %v", err)
	}
	if len(backend.uploads) != 2 {
		t.Fatalf("expected both files uploaded, got %d", len(backend.uploads))
	}
	for _, up := range backend.uploads {
		if _, statErr := os.Stat(up.path); !errors.Is(statErr, os.ErrNotExist) {
			t.Fatalf("staged file %s still present", up.path)
		}
	}
	requireEmptyDir(t, dir)
}

func TestAnalyzeFilesReturnsModelTextUnmodified(t *testing.T) {
	backend := newFakeBackend("  \n")
	analyzer, _ := newTestAnalyzer(t, backend)
	text, err := analyzer.AnalyzeFiles(context.Background(), []analysis.InputFile{{Name: "a.mp4", Data: strings.NewReader("a")}}, testSpec, "")
	if err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	if text != "  \n" {
		t.Fatalf("text = %q, want whitespace passed through", text)
	}
}

func TestAnalyzeSharedModelCacheReusesHandles(t *testing.T) {
	backend := newFakeBackend("ok")
	cache := analysis.NewModelCache(backend.NewModel)
	analyzer, _ := newTestAnalyzer(t, backend, analysis.WithModelCache(cache))

	for i := 0; i < 2; i++ {
		if _, err := analyzer.AnalyzeURL(context.Background(), "https://example.com/v.mp4", testSpec, ""); err != nil {
			t.Fatalf("AnalyzeURL: %v", err)
		}
	}
	if len(backend.built) != 1 || cache.Len() != 1 {
		t.Fatalf("expected one model build, got %d (cache %d)", len(backend.built), cache.Len())
	}

	other := testSpec
	other.SystemInstruction = "Be brief."
	if _, err := analyzer.AnalyzeURL(context.Background(), "https://example.com/v.mp4", other, ""); err != nil {
		t.Fatalf("AnalyzeURL: %v", err)
	}
	if len(backend.built) != 2 || cache.Len() != 2 {
		t.Fatalf("changed spec should build a new model, got %d (cache %d)", len(backend.built), cache.Len())
	}
}

func TestAnalyzeFilesProcessingFailureSkipsModel(t *testing.T) {
	backend := newFakeBackend("unused")
	backend.states["files/1"] = []analysis.AssetState{analysis.StateFailed}
	analyzer, dir := newTestAnalyzer(t, backend)

	_, err := analyzer.AnalyzeFiles(context.Background(), []analysis.InputFile{{Name: "bad.avi", Data: strings.NewReader("x")}}, testSpec, "")
	if !errors.Is(err, services.ErrProcessingFailed) {
		t.Fatalf("expected processing failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "files/1") {
		t.Fatalf("error should name the asset: %v", err)
	}
	if len(backend.model.calls) != 0 {
		t.Fatal("model must not be called after a processing failure")
	}
	requireEmptyDir(t, dir)
}

func TestAnalyzeFilesUploadFailureIsMarked(t *testing.T) {
	backend := newFakeBackend("")
	backend.uploadErr = errors.New("connection reset")
	analyzer, dir := newTestAnalyzer(t, backend)

	_, err := analyzer.AnalyzeFiles(context.Background(), []analysis.InputFile{{Name: "a.wmv", Data: strings.NewReader("a")}}, testSpec, "")
	if !errors.Is(err, services.ErrUpload) {
		t.Fatalf("expected upload error, got %v", err)
	}
	requireEmptyDir(t, dir)
}

func TestAnalyzeFilesRequiresInput(t *testing.T) {
	analyzer, _ := newTestAnalyzer(t, newFakeBackend(""))
	_, err := analyzer.AnalyzeFiles(context.Background(), nil, testSpec, "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyzeFilesDuplicateNamesStageSeparately(t *testing.T) {
	backend := newFakeBackend("ok")
	analyzer, _ := newTestAnalyzer(t, backend)
	files := []analysis.InputFile{
		{Name: "same.mp4", Data: strings.NewReader("one")},
		{Name: "same.mp4", Data: strings.NewReader("two")},
	}
	if _, err := analyzer.AnalyzeFiles(context.Background(), files, testSpec, ""); err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	if backend.uploads[0].path == backend.uploads[1].path {
		t.Fatal("duplicate names must not share a staged path")
	}
	if backend.uploads[0].content != "one" || backend.uploads[1].content != "two" {
		t.Fatalf("staged content mixed up: %+v", backend.uploads)
	}
}

func TestAnalyzeFilesNumberedNameDoesNotBlockDuplicates(t *testing.T) {
	backend := newFakeBackend("ok")
	analyzer, _ := newTestAnalyzer(t, backend)
	files := []analysis.InputFile{
		{Name: "3_a.mp4", Data: strings.NewReader("numbered")},
		{Name: "a.mp4", Data: strings.NewReader("first")},
		{Name: "a.mp4", Data: strings.NewReader("second")},
	}
	if _, err := analyzer.AnalyzeFiles(context.Background(), files, testSpec, ""); err != nil {
		t.Fatalf("AnalyzeFiles: %v", err)
	}
	if len(backend.uploads) != 3 {
		t.Fatalf("expected 3 uploads, got %d", len(backend.uploads))
	}
	seen := make(map[string]bool)
	for i, want := range []string{"numbered", "first", "second"} {
		up := backend.uploads[i]
		if seen[up.path] {
			t.Fatalf("staged path %s reused", up.path)
		}
		seen[up.path] = true
		if up.content != want {
			t.Fatalf("upload %d content = %q, want %q", i, up.content, want)
		}
	}
}

func TestAnalyzeFilesDeletesRemoteAssetsWhenEnabled(t *testing.T) {
	backend := newFakeBackend("")
	backend.model.err = errors.New("boom")
	analyzer, _ := newTestAnalyzer(t, backend, analysis.WithRemoteCleanup(true))

	files := []analysis.InputFile{
		{Name: "a.mp4", Data: strings.NewReader("a")},
		{Name: "b.mp4", Data: strings.NewReader("b")},
	}
	if _, err := analyzer.AnalyzeFiles(context.Background(), files, testSpec, ""); err == nil {
		t.Fatal("expected failure")
	}
	if len(backend.deleted) != 2 || backend.deleted[0] != "files/1" || backend.deleted[1] != "files/2" {
		t.Fatalf("unexpected deletions %v", backend.deleted)
	}
}

func TestAnalyzeDispatchesOnSource(t *testing.T) {
	backend := newFakeBackend("result")
	analyzer, _ := newTestAnalyzer(t, backend)

	res, err := analyzer.Analyze(context.Background(), analysis.Request{
		Source: analysis.URLSource{URL: "https://example.com/v.mp4"},
		Model:  testSpec,
		Prompt: "p",
	})
	if err != nil {
		t.Fatalf("Analyze url: %v", err)
	}
	if res.Text != "result" || res.Model != testSpec.Name || len(res.Assets) != 0 {
		t.Fatalf("unexpected url result %+v", res)
	}

	res, err = analyzer.Analyze(context.Background(), analysis.Request{
		Source: analysis.FileSet{Files: []analysis.InputFile{{Name: "a.mp4", Data: strings.NewReader("a")}}},
		Model:  testSpec,
	})
	if err != nil {
		t.Fatalf("Analyze files: %v", err)
	}
	if len(res.Assets) != 1 || res.Assets[0].Name != "files/1" {
		t.Fatalf("unexpected file result %+v", res)
	}

	if _, err := analyzer.Analyze(context.Background(), analysis.Request{Model: testSpec}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for missing source, got %v", err)
	}
	if len(backend.built) != 1 {
		t.Fatalf("expected one model build across requests, got %d", len(backend.built))
	}
}

func TestMIMETypeFor(t *testing.T) {
	cases := map[string]string{
		"a.mp4":        "video/mp4",
		"B.MOV":        "video/mov",
		"dir/c.mpeg":   "video/mpeg",
		"movie.wmv":    "video/wmv",
		"no-extension": "application/octet-stream",
	}
	for name, want := range cases {
		if got := analysis.MIMETypeFor(name); got != want {
			t.Errorf("MIMETypeFor(%q) = %q, want %q", name, got, want)
		}
	}
}
