package share

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

var ErrUnsupported = errors.New("share: no writable export directory")

// Exporter writes captured frames as PNG files into Dir.
type Exporter struct {
	Dir string
}

func NewExporter(dir string) *Exporter {
	return &Exporter{Dir: dir}
}

// Supported reports whether Dir exists (or can be created) and accepts new
// files. The share control is only offered when it does.
func (e *Exporter) Supported() bool {
	if e == nil || e.Dir == "" {
		return false
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return false
	}
	tmp, err := os.CreateTemp(e.Dir, ".depthcloud-check-*")
	if err != nil {
		return false
	}
	name := tmp.Name()
	tmp.Close()
	os.Remove(name)
	return true
}

func EncodePNG(img image.Image) ([]byte, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("share: empty frame")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("share: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Export encodes img and writes it under a fresh depthcloud-<uuid>.png name.
func (e *Exporter) Export(img image.Image) (string, error) {
	if !e.Supported() {
		return "", ErrUnsupported
	}
	blob, err := EncodePNG(img)
	if err != nil {
		return "", err
	}
	path := filepath.Join(e.Dir, "depthcloud-"+uuid.NewString()+".png")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return "", fmt.Errorf("share: write %s: %w", path, err)
	}
	return path, nil
}
