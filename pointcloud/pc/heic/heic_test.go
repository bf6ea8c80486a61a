package heic

import (
	"context"
	"image"
	"testing"

	"github.com/gekko3d/depthcloud/pointcloud/pc/depth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const portrait = "../depth/testdata/portrait.heic"

func requireHEVC(t *testing.T) {
	t.Helper()
	if !Available() {
		t.Skip("libheif was built without an HEVC decoder")
	}
}

func TestDecodePortraitWithDepth(t *testing.T) {
	requireHEVC(t)

	color, d, err := depth.NewDecoder(New()).DecodePair(context.Background(), depth.Request{ColorPath: portrait})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 320, 212), color.Bounds())
	require.IsType(t, &image.Gray{}, d)
	assert.Equal(t, image.Rect(0, 0, 320, 212), d.Bounds())

	tex, err := depth.Builder{Z: depth.ZLinear}.Build(color, d)
	require.NoError(t, err)
	assert.Equal(t, 320*212, tex.Len())
	require.NoError(t, tex.Validate())
}

func TestDecodeHEIFRejectsEmptyInput(t *testing.T) {
	_, err := New().DecodeHEIF(nil)
	assert.ErrorIs(t, err, depth.ErrEmptyImage)
}

func TestDecodeHEIFRejectsGarbage(t *testing.T) {
	_, err := New().DecodeHEIF([]byte("not a heif container"))
	assert.Error(t, err)
}

func TestLumaPlaneHonorsOrigin(t *testing.T) {
	ycc := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)
	for i := range ycc.Y {
		ycc.Y[i] = uint8(i)
	}
	sub := ycc.SubImage(image.Rect(1, 2, 3, 4)).(*image.YCbCr)

	gray := lumaPlane(sub)
	assert.Equal(t, image.Rect(0, 0, 2, 2), gray.Rect)
	assert.Equal(t, []uint8{9, 10, 13, 14}, gray.Pix)
}
