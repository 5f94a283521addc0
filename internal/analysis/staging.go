package analysis

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"videolens/internal/logging"
	"videolens/internal/textutil"
)

const (
	stagedPrefix = "temp_video_"
	sniffBytes   = 3072

	// StagingDirPrefix names the per-request directories created under the
	// staging root.
	StagingDirPrefix = "request-"
)

// MIMETypeFor derives the upload MIME type from a file name as video/<extension>.
func MIMETypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return "application/octet-stream"
	}
	return "video/" + ext
}

// stagedFile is one input persisted to local disk ahead of upload.
type stagedFile struct {
	Path        string
	DisplayName string
	MIMEType    string
	Detected    string
	Size        int64
}

// staging owns a per-request directory of temporary copies.
type staging struct {
	dir    string
	used   map[string]struct{}
	files  []stagedFile
	logger *slog.Logger
}

func newStaging(root string, logger *slog.Logger) (*staging, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create staging root %q: %w", root, err)
	}
	dir, err := os.MkdirTemp(root, StagingDirPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &staging{dir: dir, used: make(map[string]struct{}), logger: logger}, nil
}

// write persists one input. The staged name is derived from the original
// name; a numeric prefix is added only when the name is already taken.
func (s *staging) write(index int, file InputFile) (stagedFile, error) {
	base := textutil.SanitizeFileName(filepath.Base(file.Name))
	if base == "" || base == "." {
		base = fmt.Sprintf("video_%d", index+1)
	}
	name := stagedPrefix + base
	for n := index + 1; ; n++ {
		if _, taken := s.used[name]; !taken {
			break
		}
		name = fmt.Sprintf("%s%d_%s", stagedPrefix, n, base)
	}
	s.used[name] = struct{}{}
	path := filepath.Join(s.dir, name)

	if file.Data == nil {
		return stagedFile{}, fmt.Errorf("input %q has no data", file.Name)
	}
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return stagedFile{}, fmt.Errorf("create staged file: %w", err)
	}
	// Track before writing so a partial file is still cleaned up.
	staged := stagedFile{Path: path, DisplayName: file.Name, MIMEType: MIMETypeFor(file.Name)}
	s.files = append(s.files, staged)

	reader := bufio.NewReaderSize(file.Data, sniffBytes)
	head, _ := reader.Peek(sniffBytes)
	staged.Detected = mimetype.Detect(head).String()

	size, copyErr := io.Copy(out, reader)
	closeErr := out.Close()
	if copyErr != nil {
		return stagedFile{}, fmt.Errorf("write staged file: %w", copyErr)
	}
	if closeErr != nil {
		return stagedFile{}, fmt.Errorf("close staged file: %w", closeErr)
	}
	staged.Size = size
	s.files[len(s.files)-1] = staged

	if !looksLikeVideo(staged.Detected) {
		s.logger.Warn("input content does not look like video",
			logging.String("file", file.Name),
			logging.String("detected", staged.Detected),
			logging.String("declared", staged.MIMEType),
		)
	}
	return staged, nil
}

// cleanup removes every staged file and the request directory. Errors are
// logged; a file that is already gone is not an error.
func (s *staging) cleanup() {
	for _, file := range s.files {
		if err := os.Remove(file.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("remove staged file failed", logging.String("path", file.Path), logging.Error(err))
		}
	}
	if err := os.RemoveAll(s.dir); err != nil {
		s.logger.Warn("remove staging dir failed", logging.String("path", s.dir), logging.Error(err))
	}
}

func looksLikeVideo(detected string) bool {
	return strings.HasPrefix(detected, "video/") ||
		strings.HasPrefix(detected, "application/octet-stream") ||
		strings.HasPrefix(detected, "application/vnd.ms-asf")
}
