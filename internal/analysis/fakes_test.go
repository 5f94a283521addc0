package analysis_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"videolens/internal/analysis"
)

type analyzeCall struct {
	parts  []analysis.Part
	prompt string
}

type fakeModel struct {
	mu    sync.Mutex
	spec  analysis.ModelSpec
	reply string
	err   error
	calls []analyzeCall
}

func (m *fakeModel) Analyze(_ context.Context, parts []analysis.Part, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, analyzeCall{parts: parts, prompt: prompt})
	return m.reply, m.err
}

type uploadCall struct {
	path        string
	displayName string
	mimeType    string
	content     string
}

// fakeBackend scripts asset state sequences by asset name; the last state
// in a sequence repeats.
type fakeBackend struct {
	mu        sync.Mutex
	states    map[string][]analysis.AssetState
	fetches   []string
	uploads   []uploadCall
	uploadErr error
	getErr    error
	deleted   []string
	model     *fakeModel
	modelErr  error
	built     []analysis.ModelSpec
}

func newFakeBackend(reply string) *fakeBackend {
	return &fakeBackend{
		states: make(map[string][]analysis.AssetState),
		model:  &fakeModel{reply: reply},
	}
}

func (b *fakeBackend) NewModel(_ context.Context, spec analysis.ModelSpec) (analysis.Model, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.built = append(b.built, spec)
	if b.modelErr != nil {
		return nil, b.modelErr
	}
	b.model.spec = spec
	return b.model, nil
}

func (b *fakeBackend) Upload(_ context.Context, path, displayName, mimeType string) (analysis.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return analysis.Asset{}, b.uploadErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return analysis.Asset{}, fmt.Errorf("staged file missing at upload: %w", err)
	}
	b.uploads = append(b.uploads, uploadCall{path: path, displayName: displayName, mimeType: mimeType, content: string(data)})
	name := fmt.Sprintf("files/%d", len(b.uploads))
	return analysis.Asset{
		Name:        name,
		DisplayName: displayName,
		URI:         "https://generativelanguage.example/v1beta/" + name,
		MIMEType:    mimeType,
		SizeBytes:   int64(len(data)),
		State:       analysis.StateProcessing,
	}, nil
}

func (b *fakeBackend) GetAsset(_ context.Context, name string) (analysis.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches = append(b.fetches, name)
	if b.getErr != nil {
		return analysis.Asset{}, b.getErr
	}
	seq := b.states[name]
	state := analysis.StateActive
	if len(seq) > 0 {
		state = seq[0]
		if len(seq) > 1 {
			b.states[name] = seq[1:]
		}
	}
	return analysis.Asset{Name: name, URI: "https://generativelanguage.example/v1beta/" + name, MIMEType: "video/mp4", State: state}, nil
}

func (b *fakeBackend) DeleteAsset(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, name)
	return nil
}

// sleepRecorder counts waits without sleeping and advances a fake clock.
type sleepRecorder struct {
	mu     sync.Mutex
	now    time.Time
	delays []time.Duration
}

func newSleepRecorder() *sleepRecorder {
	return &sleepRecorder{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	s.now = s.now.Add(d)
	return nil
}

func (s *sleepRecorder) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

func (s *sleepRecorder) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delays)
}
