// Package compositor blends an overlay tile onto a base tile and produces a
// PNG, resizing both to a shared canvas first.
package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"time"

	"github.com/jaennil/heatmap_tiles/internal/model"
	"github.com/jaennil/heatmap_tiles/pkg/metrics"
	xdraw "golang.org/x/image/draw"
)

const (
	CompositeSource = "composite"
	// DefaultMaxDimension bounds width and height of decoded inputs.
	DefaultMaxDimension = 4096
)

var (
	ErrDecode = errors.New("failed to decode image")
	ErrEncode = errors.New("failed to encode composite")
)

type Options struct {
	// Resampler is one of catmullrom, bilinear, approxbilinear, nearest.
	// Empty means catmullrom.
	Resampler string
	// PNGCompression is one of default, speed, best, none.
	PNGCompression string
	// MaxDimension rejects inputs whose header declares a larger width or
	// height. Zero means DefaultMaxDimension.
	MaxDimension int
}

type Compositor struct {
	scaler       xdraw.Scaler
	encoder      *png.Encoder
	maxDimension int
}

func New(opts Options) (*Compositor, error) {
	scaler, err := scalerFor(opts.Resampler)
	if err != nil {
		return nil, err
	}
	level, err := compressionFor(opts.PNGCompression)
	if err != nil {
		return nil, err
	}

	maxDimension := opts.MaxDimension
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}

	return &Compositor{
		scaler:       scaler,
		encoder:      &png.Encoder{CompressionLevel: level},
		maxDimension: maxDimension,
	}, nil
}

// Compose decodes base and overlay, scales both to the element-wise maximum of
// their dimensions and draws overlay over base. Blending is done on
// non-premultiplied pixels, so a fully transparent overlay pixel leaves the
// base pixel byte-for-byte unchanged.
func (c *Compositor) Compose(base, overlay model.RawImage) (model.RawImage, error) {
	start := time.Now()
	defer func() {
		metrics.ComposeLatency.Observe(time.Since(start).Seconds())
	}()

	baseImg, err := c.decode(base)
	if err != nil {
		return model.RawImage{}, err
	}
	overlayImg, err := c.decode(overlay)
	if err != nil {
		return model.RawImage{}, err
	}

	bb, ob := baseImg.Bounds(), overlayImg.Bounds()
	canvasRect := image.Rect(0, 0, max(bb.Dx(), ob.Dx()), max(bb.Dy(), ob.Dy()))

	canvas := image.NewNRGBA(canvasRect)
	c.fit(canvas, baseImg)

	top := image.NewNRGBA(canvasRect)
	c.fit(top, overlayImg)

	over(canvas, top)

	var buf bytes.Buffer
	if err := c.encoder.Encode(&buf, canvas); err != nil {
		return model.RawImage{}, fmt.Errorf("%w: %w", ErrEncode, err)
	}

	return model.RawImage{
		Data:   buf.Bytes(),
		Source: CompositeSource,
	}, nil
}

// fit copies src onto the whole of dst, resampling only when sizes differ.
func (c *Compositor) fit(dst *image.NRGBA, src image.Image) {
	sb := src.Bounds()
	if sb.Dx() != dst.Rect.Dx() || sb.Dy() != dst.Rect.Dy() {
		c.scaler.Scale(dst, dst.Rect, src, sb, xdraw.Src, nil)
		return
	}

	// Same size: straight-alpha sources are copied exactly.
	for y := 0; y < sb.Dy(); y++ {
		for x := 0; x < sb.Dx(); x++ {
			px := color.NRGBAModel.Convert(src.At(sb.Min.X+x, sb.Min.Y+y)).(color.NRGBA)
			dst.SetNRGBA(x, y, px)
		}
	}
}

// over blends src onto dst with the Porter-Duff "over" operator on straight
// alpha. Both images must share the same rectangle anchored at the origin.
func over(dst, src *image.NRGBA) {
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		s := src.Pix[i : i+4 : i+4]
		d := dst.Pix[i : i+4 : i+4]

		sa := uint32(s[3])
		switch sa {
		case 0:
			continue
		case 0xff:
			copy(d, s)
			continue
		}

		// Weights are scaled by 0xff*0xff.
		sw := sa * 0xff
		dw := uint32(d[3]) * (0xff - sa)
		ow := sw + dw

		for k := 0; k < 3; k++ {
			d[k] = uint8((uint32(s[k])*sw + uint32(d[k])*dw + ow/2) / ow)
		}
		d[3] = uint8((ow + 0x7f) / 0xff)
	}
}

func (c *Compositor) decode(raw model.RawImage) (image.Image, error) {
	if len(raw.Data) == 0 {
		return nil, fmt.Errorf("%w: %s image is empty", ErrDecode, raw.Source)
	}

	// Check the header first: a small compressed body can declare a huge canvas.
	cfg, _, err := raw.Config()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, raw.Source, err)
	}
	if cfg.Width > c.maxDimension || cfg.Height > c.maxDimension {
		return nil, fmt.Errorf("%w: %s image is %dx%d, limit is %d",
			ErrDecode, raw.Source, cfg.Width, cfg.Height, c.maxDimension)
	}

	img, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, raw.Source, err)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, fmt.Errorf("%w: %s image has zero size %dx%d", ErrDecode, raw.Source, b.Dx(), b.Dy())
	}

	return img, nil
}

func scalerFor(name string) (xdraw.Scaler, error) {
	switch name {
	case "", "catmullrom":
		return xdraw.CatmullRom, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "approxbilinear":
		return xdraw.ApproxBiLinear, nil
	case "nearest":
		return xdraw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown resampler %q", name)
	}
}

func compressionFor(name string) (png.CompressionLevel, error) {
	switch name {
	case "", "default":
		return png.DefaultCompression, nil
	case "speed":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	case "none":
		return png.NoCompression, nil
	default:
		return 0, fmt.Errorf("unknown png compression %q", name)
	}
}
