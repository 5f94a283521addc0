package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// mp4Header is the start of an ISO BMFF "ftyp" box, enough for content
// sniffing to report video/mp4.
var mp4Header = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00, 'i', 's', 'o', 'm', 'm', 'p', '4', '1'}

// VideoBytes returns size bytes that begin with an MP4 header. Sizes smaller
// than the header return just the header.
func VideoBytes(size int) []byte {
	if size < len(mp4Header) {
		size = len(mp4Header)
	}
	buf := make([]byte, size)
	copy(buf, mp4Header)
	for i := len(mp4Header); i < size; i++ {
		buf[i] = 0x42
	}
	return buf
}

// WriteVideo writes a small MP4-looking file at path and returns the path.
func WriteVideo(t testing.TB, path string, size int) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, VideoBytes(size), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
