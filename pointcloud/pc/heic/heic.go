// Package heic decodes HEVC-coded HEIF photos and their depth images with
// libheif. Building it needs cgo and the libheif development package.
package heic

import (
	"fmt"
	"image"

	"github.com/gekko3d/depthcloud/pointcloud/pc/depth"
	libheif "github.com/strukturag/libheif-go"
)

// Decoder is a depth.HEIFDecoder backed by libheif.
type Decoder struct{}

func New() Decoder {
	return Decoder{}
}

// Available reports whether the linked libheif has an HEVC decoder plugin.
func Available() bool {
	return libheif.HaveDecoderForFormat(libheif.CompressionHEVC)
}

// DecodeHEIF decodes the primary image as RGB and its first depth image,
// keyed by depth.DepthAuxType. A photo without depth decodes with an empty
// Auxiliary map.
func (Decoder) DecodeHEIF(data []byte) (*depth.HEIFImage, error) {
	if len(data) == 0 {
		return nil, depth.ErrEmptyImage
	}
	ctx, err := libheif.NewContext()
	if err != nil {
		return nil, fmt.Errorf("heic: %w", err)
	}
	if err := ctx.ReadFromMemory(data); err != nil {
		return nil, fmt.Errorf("heic: read container: %w", err)
	}
	handle, err := ctx.GetPrimaryImageHandle()
	if err != nil {
		return nil, fmt.Errorf("heic: primary image: %w", err)
	}
	primary, err := decodeColor(handle)
	if err != nil {
		return nil, fmt.Errorf("heic: decode primary image: %w", err)
	}

	out := &depth.HEIFImage{Primary: primary, Auxiliary: make(map[string]image.Image)}
	ids := handle.GetListOfDepthImageIDs()
	if len(ids) == 0 {
		return out, nil
	}
	dh, err := handle.GetDepthImageHandle(ids[0])
	if err != nil {
		return nil, fmt.Errorf("heic: depth image %d: %w", ids[0], err)
	}
	d, err := decodeDepth(dh)
	if err != nil {
		return nil, fmt.Errorf("heic: decode depth image %d: %w", ids[0], err)
	}
	out.Auxiliary[depth.DepthAuxType] = d
	return out, nil
}

func decodeColor(h *libheif.ImageHandle) (image.Image, error) {
	img, err := h.DecodeImage(libheif.ColorspaceRGB, libheif.ChromaInterleavedRGB, nil)
	if err != nil {
		return nil, err
	}
	return img.GetImage()
}

// decodeDepth keeps the luma plane only: depth is coded as a monochrome or
// 4:2:0 stream and converting it to RGB would round the samples.
func decodeDepth(h *libheif.ImageHandle) (*image.Gray, error) {
	img, err := h.DecodeImage(libheif.ColorspaceYCbCr, libheif.Chroma420, nil)
	if err != nil {
		return nil, err
	}
	decoded, err := img.GetImage()
	if err != nil {
		return nil, err
	}
	ycc, ok := decoded.(*image.YCbCr)
	if !ok {
		return nil, fmt.Errorf("unexpected depth image type %T", decoded)
	}
	return lumaPlane(ycc), nil
}

func lumaPlane(ycc *image.YCbCr) *image.Gray {
	b := ycc.Rect
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		row := ycc.YOffset(b.Min.X, b.Min.Y+y)
		copy(gray.Pix[y*gray.Stride:], ycc.Y[row:row+b.Dx()])
	}
	return gray
}
