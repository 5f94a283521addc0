package analysis

import (
	"io"
	"time"
)

// GenerationConfig holds the sampling parameters passed verbatim to the model.
type GenerationConfig struct {
	Temperature      float32
	TopP             float32
	TopK             int32
	MaxOutputTokens  int32
	ResponseMIMEType string
}

// ModelSpec identifies a configured model. Two specs with equal fields share a
// cached handle.
type ModelSpec struct {
	Name              string
	Generation        GenerationConfig
	SystemInstruction string
}

// AssetState is the remote processing state of an uploaded file.
type AssetState string

const (
	StateProcessing AssetState = "PROCESSING"
	StateActive     AssetState = "ACTIVE"
	StateFailed     AssetState = "FAILED"
	StateUnknown    AssetState = "UNKNOWN"
)

// Asset is a file held by the remote provider.
type Asset struct {
	Name        string
	DisplayName string
	URI         string
	MIMEType    string
	SizeBytes   int64
	State       AssetState
}

// Label returns the display name, falling back to the remote name.
func (a Asset) Label() string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.Name
}

// Part is one element of the initial conversation turn: a TextPart or an Asset.
type Part interface {
	isPart()
}

// TextPart is literal text, such as a video URL.
type TextPart string

func (TextPart) isPart() {}

func (Asset) isPart() {}

// InputFile is a caller-supplied video: its original file name and its bytes.
type InputFile struct {
	Name string
	Data io.Reader
}

// Source selects what gets analyzed. The only implementations are URLSource
// and FileSet.
type Source interface {
	isSource()
}

// URLSource analyzes a video the model can fetch by itself.
type URLSource struct {
	URL string
}

// FileSet analyzes local files that are uploaded first.
type FileSet struct {
	Files []InputFile
}

func (URLSource) isSource() {}

func (FileSet) isSource() {}

// Request is a complete analysis request.
type Request struct {
	Source Source
	Model  ModelSpec
	Prompt string
}

// Result is the analysis text plus metadata for presentation.
type Result struct {
	Text    string
	Model   string
	Assets  []Asset
	Elapsed time.Duration
}
