package depth

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

type Format string

const (
	FormatUnknown Format = ""
	FormatJPEG    Format = "jpeg"
	FormatPNG     Format = "png"
	FormatGIF     Format = "gif"
	FormatWebP    Format = "webp"
	FormatBMP     Format = "bmp"
	FormatTIFF    Format = "tiff"
	FormatHEIF    Format = "heif"
)

var mimeFormats = map[string]Format{
	"image/jpeg": FormatJPEG,
	"image/png":  FormatPNG,
	"image/gif":  FormatGIF,
	"image/webp": FormatWebP,
	"image/bmp":  FormatBMP,
	"image/tiff": FormatTIFF,
	"image/heif": FormatHEIF,
	"image/heic": FormatHEIF,
}

// DetectFormat sniffs the image format from the leading bytes.
func DetectFormat(head []byte) (Format, error) {
	kind, err := filetype.Match(head)
	if err == nil && kind != filetype.Unknown {
		if f, ok := mimeFormats[kind.MIME.Value]; ok {
			return f, nil
		}
	}
	if looksLikeHEIF(head) {
		return FormatHEIF, nil
	}
	if err != nil {
		return FormatUnknown, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if kind != filetype.Unknown {
		return FormatUnknown, fmt.Errorf("%w: %s", ErrUnsupportedFormat, kind.MIME.Value)
	}
	return FormatUnknown, ErrUnsupportedFormat
}

// HEIFImage is the output of a HEIF decoder: the primary image and the
// auxiliary images keyed by their auxC type URN.
type HEIFImage struct {
	Primary   image.Image
	Auxiliary map[string]image.Image
}

// HEIFDecoder decodes HEVC-coded HEIF images. Package heic implements it
// with libheif; this package only reads the container structure.
type HEIFDecoder interface {
	DecodeHEIF(data []byte) (*HEIFImage, error)
}

// Request names the files of one load: a color image and an optional
// separate depth map. Without DepthPath the color file must be a HEIF
// photo carrying a depth auxiliary image.
type Request struct {
	ColorPath string
	DepthPath string
}

// Decoder reads and decodes the images of a Request.
type Decoder struct {
	HEIF     HEIFDecoder
	ReadFile func(name string) ([]byte, error)
}

func NewDecoder(heif HEIFDecoder) *Decoder {
	return &Decoder{HEIF: heif, ReadFile: os.ReadFile}
}

// DecodePair returns the color and depth images of req. Color and a
// separate depth file are decoded concurrently.
func (d *Decoder) DecodePair(ctx context.Context, req Request) (image.Image, image.Image, error) {
	if req.ColorPath == "" {
		return nil, nil, &DecodeError{Op: "decode", Err: fmt.Errorf("%w: no color image given", ErrEmptyImage)}
	}
	if req.DepthPath == "" {
		return d.decodeEmbedded(ctx, req.ColorPath)
	}

	var color, depth image.Image
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := d.decodeFile(ctx, req.ColorPath, false)
		color = img
		return err
	})
	g.Go(func() error {
		img, err := d.decodeFile(ctx, req.DepthPath, true)
		depth = img
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return color, depth, nil
}

func (d *Decoder) read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	readFile := d.ReadFile
	if readFile == nil {
		readFile = os.ReadFile
	}
	data, err := readFile(path)
	if err != nil {
		return nil, decodeErr("read", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return data, nil
}

// decodeFile decodes any supported format. For HEIF it returns the primary
// image, or the depth auxiliary image when wantDepth is set.
func (d *Decoder) decodeFile(ctx context.Context, path string, wantDepth bool) (image.Image, error) {
	data, err := d.read(ctx, path)
	if err != nil {
		return nil, err
	}
	format, err := DetectFormat(data)
	if err != nil {
		return nil, decodeErr("detect", path, err)
	}
	if format == FormatHEIF {
		primary, depth, err := d.decodeHEIF(path, data)
		if err != nil {
			return nil, err
		}
		if wantDepth {
			return depth, nil
		}
		return primary, nil
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeErr("decode", path, err)
	}
	if img.Bounds().Empty() {
		return nil, decodeErr("decode", path, ErrEmptyImage)
	}
	return img, nil
}

func (d *Decoder) decodeEmbedded(ctx context.Context, path string) (image.Image, image.Image, error) {
	data, err := d.read(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	format, err := DetectFormat(data)
	if err != nil {
		return nil, nil, decodeErr("detect", path, err)
	}
	if format != FormatHEIF {
		return nil, nil, decodeErr("decode", path, fmt.Errorf("%w: %s image has no embedded depth, pass a depth map", ErrDepthMissing, format))
	}
	return d.decodeHEIF(path, data)
}

// decodeHEIF checks the container for a depth auxiliary image before
// handing the file to the HEVC decoder.
func (d *Decoder) decodeHEIF(path string, data []byte) (image.Image, image.Image, error) {
	info, err := ReadHEIFInfo(data)
	if err != nil {
		return nil, nil, decodeErr("read items", path, err)
	}
	if _, ok := info.DepthItem(); !ok {
		return nil, nil, decodeErr("read items", path, ErrDepthMissing)
	}
	if d.HEIF == nil {
		return nil, nil, decodeErr("decode", path, fmt.Errorf("%w: no HEVC decoder available", ErrUnsupportedFormat))
	}
	out, err := d.HEIF.DecodeHEIF(data)
	if err != nil {
		return nil, nil, decodeErr("decode", path, err)
	}
	if out == nil || out.Primary == nil || out.Primary.Bounds().Empty() {
		return nil, nil, decodeErr("decode", path, ErrEmptyImage)
	}
	depth, ok := out.Auxiliary[DepthAuxType]
	if !ok || depth == nil {
		return nil, nil, decodeErr("decode", path, ErrDepthMissing)
	}
	return out.Primary, depth, nil
}
