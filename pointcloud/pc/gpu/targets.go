package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
)

// ParticleFormat stores position in xyz and the packed color in w.
const ParticleFormat = wgpu.TextureFormatRGBA32Float

// Target is one half of the particle ping-pong pair.
type Target struct {
	Texture *wgpu.Texture
	View    *wgpu.TextureView
	Width   uint32
	Height  uint32
}

func newTarget(device *wgpu.Device, label string, width, height uint32) (*Target, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         label,
		Size:          wgpu.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        ParticleFormat,
		Usage: wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding |
			wgpu.TextureUsageCopyDst | wgpu.TextureUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create %s view: %w", label, err)
	}
	return &Target{Texture: tex, View: view, Width: width, Height: height}, nil
}

func newTargetPair(device *wgpu.Device, width, height uint32) (*Target, *Target, error) {
	a, err := newTarget(device, "Particles A", width, height)
	if err != nil {
		return nil, nil, err
	}
	b, err := newTarget(device, "Particles B", width, height)
	if err != nil {
		a.Release()
		return nil, nil, err
	}
	return a, b, nil
}

// Upload replaces the whole target with tex.
func (t *Target) Upload(queue *wgpu.Queue, tex *core.PositionTexture) error {
	if uint32(tex.Width) != t.Width || uint32(tex.Height) != t.Height {
		return fmt.Errorf("upload %dx%d texture into %dx%d target", tex.Width, tex.Height, t.Width, t.Height)
	}
	return queue.WriteTexture(t.Texture.AsImageCopy(), tex.Bytes(), &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  tex.BytesPerRow(),
		RowsPerImage: t.Height,
	}, &wgpu.Extent3D{Width: t.Width, Height: t.Height, DepthOrArrayLayers: 1})
}

func (t *Target) Release() {
	if t.View != nil {
		t.View.Release()
	}
	if t.Texture != nil {
		t.Texture.Release()
	}
}
