package gpu

import (
	"errors"
	"fmt"
	"image"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
)

var ErrCaptureFormat = errors.New("capture: unsupported color format")

// alignedRowPitch rounds a readback row up to the 256-byte copy alignment.
func alignedRowPitch(width uint32) uint32 {
	return (width*4 + 255) & ^uint32(255)
}

// captureLayout reports whether format is an 8-bit RGBA or BGRA format
// that can be read back as an image.
func captureLayout(format wgpu.TextureFormat) (bgra bool, err error) {
	switch format {
	case wgpu.TextureFormatRGBA8Unorm, wgpu.TextureFormatRGBA8UnormSrgb:
		return false, nil
	case wgpu.TextureFormatBGRA8Unorm, wgpu.TextureFormatBGRA8UnormSrgb:
		return true, nil
	}
	return false, fmt.Errorf("%w: %v", ErrCaptureFormat, format)
}

// unpackRows copies a padded readback buffer into a tightly packed image.
func unpackRows(data []byte, width, height, bytesPerRow uint32, bgra bool) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	for y := uint32(0); y < height; y++ {
		src := data[y*bytesPerRow : y*bytesPerRow+width*4]
		dst := img.Pix[int(y)*img.Stride : int(y)*img.Stride+int(width)*4]
		copy(dst, src)
		if bgra {
			for x := 0; x < len(dst); x += 4 {
				dst[x], dst[x+2] = dst[x+2], dst[x]
			}
		}
	}
	return img
}

// Capture renders the current particle state into an offscreen texture and
// reads it back. It blocks until the GPU has finished the copy.
func (f *FBO) Capture(width, height uint32, in core.InputState) (*image.RGBA, error) {
	bgra, err := captureLayout(f.colorFormat)
	if err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("capture: empty frame %dx%d", width, height)
	}

	tex, err := f.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Capture",
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        f.colorFormat,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, err
	}
	defer tex.Release()
	view, err := tex.CreateView(nil)
	if err != nil {
		return nil, err
	}
	defer view.Release()

	bytesPerRow := alignedRowPitch(width)
	size := uint64(bytesPerRow) * uint64(height)
	readback, err := f.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Capture Readback",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, err
	}
	defer readback.Release()

	encoder, err := f.device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, err
	}
	defer encoder.Release()
	if err := f.Render(encoder, view, width, height, in); err != nil {
		return nil, err
	}
	encoder.CopyTextureToBuffer(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{X: 0, Y: 0, Z: 0},
		},
		&wgpu.ImageCopyBuffer{
			Buffer: readback,
			Layout: wgpu.TextureDataLayout{
				Offset:       0,
				BytesPerRow:  bytesPerRow,
				RowsPerImage: height,
			},
		},
		&wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
	)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, err
	}
	f.queue.Submit(cmd)

	var status wgpu.BufferMapAsyncStatus
	mapped := false
	err = readback.MapAsync(wgpu.MapModeRead, 0, size, func(s wgpu.BufferMapAsyncStatus) {
		status, mapped = s, true
	})
	if err != nil {
		return nil, err
	}
	f.device.Poll(true, nil)
	if !mapped || status != wgpu.BufferMapAsyncStatusSuccess {
		return nil, fmt.Errorf("capture: map readback buffer: status %v", status)
	}
	defer readback.Unmap()

	img := unpackRows(readback.GetMappedRange(0, uint(size)), width, height, bytesPerRow, bgra)
	f.logger.Debugf("captured %dx%d frame", width, height)
	return img, nil
}
