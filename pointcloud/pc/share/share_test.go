package share

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 3, 2))
	img.SetRGBA(0, 0, color.RGBA{255, 0, 0, 255})
	img.SetRGBA(2, 1, color.RGBA{1, 2, 3, 255})
	return img
}

func TestExportWritesPNG(t *testing.T) {
	e := NewExporter(filepath.Join(t.TempDir(), "shots"))
	require.True(t, e.Supported())

	path, err := e.Export(frame())
	require.NoError(t, err)
	name := filepath.Base(path)
	assert.True(t, strings.HasPrefix(name, "depthcloud-"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	got, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, frame().Bounds(), got.Bounds())
	assert.Equal(t, color.RGBA{1, 2, 3, 255}, color.RGBAModel.Convert(got.At(2, 1)))

	// The write check leaves no temp file behind.
	entries, err := os.ReadDir(e.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExportNamesAreUnique(t *testing.T) {
	e := NewExporter(t.TempDir())
	a, err := e.Export(frame())
	require.NoError(t, err)
	b, err := e.Export(frame())
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestUnsupportedWithoutDir(t *testing.T) {
	var nilExporter *Exporter
	assert.False(t, nilExporter.Supported())
	assert.False(t, NewExporter("").Supported())

	_, err := NewExporter("").Export(frame())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestUnsupportedWhenDirIsAFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.False(t, NewExporter(file).Supported())
}

func TestEncodePNGRejectsEmpty(t *testing.T) {
	_, err := EncodePNG(image.NewRGBA(image.Rect(0, 0, 0, 0)))
	assert.Error(t, err)
	_, err = EncodePNG(nil)
	assert.Error(t, err)
}
