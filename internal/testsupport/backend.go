package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"

	"videolens/internal/analysis"
)

// Upload records one call to FakeBackend.Upload.
type Upload struct {
	Path        string
	DisplayName string
	MIMEType    string
	Size        int
}

// Prompt records one call to a FakeBackend model.
type Prompt struct {
	Spec   analysis.ModelSpec
	Parts  []analysis.Part
	Prompt string
}

// FakeBackend is an in-memory analysis.Backend. Uploaded assets become ACTIVE
// on the first state check unless States scripts otherwise.
type FakeBackend struct {
	mu sync.Mutex

	Reply     string
	ReplyErr  error
	UploadErr error
	States    map[string][]analysis.AssetState

	uploads []Upload
	prompts []Prompt
	deleted []string
}

// NewFakeBackend returns a backend whose models reply with reply.
func NewFakeBackend(reply string) *FakeBackend {
	return &FakeBackend{Reply: reply, States: make(map[string][]analysis.AssetState)}
}

// NewModel implements analysis.Backend.
func (b *FakeBackend) NewModel(_ context.Context, spec analysis.ModelSpec) (analysis.Model, error) {
	return &fakeModel{backend: b, spec: spec}, nil
}

// Upload implements analysis.Backend.
func (b *FakeBackend) Upload(_ context.Context, path, displayName, mimeType string) (analysis.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.UploadErr != nil {
		return analysis.Asset{}, b.UploadErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return analysis.Asset{}, err
	}
	b.uploads = append(b.uploads, Upload{Path: path, DisplayName: displayName, MIMEType: mimeType, Size: len(data)})
	name := fmt.Sprintf("files/fake-%d", len(b.uploads))
	return analysis.Asset{
		Name:        name,
		DisplayName: displayName,
		URI:         "https://files.test/" + name,
		MIMEType:    mimeType,
		SizeBytes:   int64(len(data)),
		State:       analysis.StateProcessing,
	}, nil
}

// GetAsset implements analysis.Backend.
func (b *FakeBackend) GetAsset(_ context.Context, name string) (analysis.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state := analysis.StateActive
	if seq := b.States[name]; len(seq) > 0 {
		state = seq[0]
		if len(seq) > 1 {
			b.States[name] = seq[1:]
		}
	}
	return analysis.Asset{Name: name, URI: "https://files.test/" + name, MIMEType: "video/mp4", State: state}, nil
}

// DeleteAsset implements analysis.Backend.
func (b *FakeBackend) DeleteAsset(_ context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, name)
	return nil
}

// Uploads returns the recorded uploads.
func (b *FakeBackend) Uploads() []Upload {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Upload(nil), b.uploads...)
}

// Prompts returns the recorded model calls.
func (b *FakeBackend) Prompts() []Prompt {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Prompt(nil), b.prompts...)
}

// Deleted returns the names passed to DeleteAsset.
func (b *FakeBackend) Deleted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.deleted...)
}

type fakeModel struct {
	backend *FakeBackend
	spec    analysis.ModelSpec
}

func (m *fakeModel) Analyze(_ context.Context, parts []analysis.Part, prompt string) (string, error) {
	b := m.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prompts = append(b.prompts, Prompt{Spec: m.spec, Parts: parts, Prompt: prompt})
	return b.Reply, b.ReplyErr
}
