package depth

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/anthonynsimon/bild/transform"
	"github.com/chewxy/math32"
	"github.com/gekko3d/depthcloud/pointcloud/pc/core"
	"github.com/go-gl/mathgl/mgl32"
)

// ZMapping turns an 8-bit depth sample into a z coordinate.
type ZMapping int

const (
	ZLinear ZMapping = iota // depth/255
	ZLog2                   // log2(depth), 0 for depth 0
)

func (z ZMapping) String() string {
	switch z {
	case ZLinear:
		return "linear"
	case ZLog2:
		return "log2"
	}
	return fmt.Sprintf("ZMapping(%d)", int(z))
}

func ParseZMapping(s string) (ZMapping, error) {
	switch s {
	case "linear", "":
		return ZLinear, nil
	case "log", "log2":
		return ZLog2, nil
	}
	return 0, fmt.Errorf("unknown z mapping %q", s)
}

// Z applies the mapping. log2 is undefined at zero, so zero depth maps to 0.
func (z ZMapping) Z(d uint8) float32 {
	if z == ZLog2 {
		if d == 0 {
			return 0
		}
		return math32.Log2(float32(d))
	}
	return float32(d) / 255
}

// Builder converts a color image and an aligned depth image into a
// particle position texture.
type Builder struct {
	// Scale stretches the normalized [-0.5,0.5] image plane to fit the camera.
	Scale float32
	Z     ZMapping
	// MaxParticles caps the texel count; larger color images are
	// downsampled first. Zero means no cap.
	MaxParticles int
}

// Build produces one texel per color pixel, row-major. The depth image may
// have a different resolution and is sampled nearest-neighbor.
func (b Builder) Build(color, depth image.Image) (*core.PositionTexture, error) {
	if color == nil || color.Bounds().Empty() {
		return nil, fmt.Errorf("color: %w", ErrEmptyImage)
	}
	if depth == nil || depth.Bounds().Empty() {
		return nil, fmt.Errorf("depth: %w", ErrEmptyImage)
	}

	color = b.fit(color)
	rgba := asNRGBA(color)
	gray := asGray(depth)

	cw, ch := rgba.Rect.Dx(), rgba.Rect.Dy()
	dw, dh := gray.Rect.Dx(), gray.Rect.Dy()

	tex, err := core.NewPositionTexture(cw, ch)
	if err != nil {
		return nil, err
	}

	scale := b.Scale
	if scale == 0 {
		scale = 1
	}

	for i := 0; i < cw*ch; i++ {
		col, row := i%cw, i/cw

		dx := col * dw / cw
		dy := row * dh / ch
		d := gray.Pix[dy*gray.Stride+dx]

		o := row*rgba.Stride + col*4
		r, g, bl := rgba.Pix[o], rgba.Pix[o+1], rgba.Pix[o+2]

		p := mgl32.Vec3{
			(float32(col)/float32(cw) - 0.5) * scale,
			((1 - float32(row)/float32(ch)) - 0.5) * scale,
			b.Z.Z(d),
		}
		tex.Set(i, p, core.PackColor(r, g, bl))
	}
	return tex, nil
}

func (b Builder) fit(img image.Image) image.Image {
	if b.MaxParticles <= 0 {
		return img
	}
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w*h <= b.MaxParticles {
		return img
	}
	s := math32.Sqrt(float32(b.MaxParticles) / float32(w*h))
	nw := max(1, int(float32(w)*s))
	nh := max(1, int(float32(h)*s))
	for nw*nh > b.MaxParticles {
		if nw >= nh {
			nw--
		} else {
			nh--
		}
	}
	return transform.Resize(img, nw, nh, transform.NearestNeighbor)
}

// asNRGBA returns img as a zero-origin non-premultiplied RGBA image, so
// translucent pixels keep their stored color channels.
func asNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}

// asGray returns img as a zero-origin 8-bit gray image. Color depth maps
// are reduced with the standard luma weights.
func asGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Rect, img, b.Min, draw.Src)
	return out
}
