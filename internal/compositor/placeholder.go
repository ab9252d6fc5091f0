package compositor

import (
	"bytes"
	"image"
	"image/png"
	"sync"

	"github.com/jaennil/heatmap_tiles/internal/model"
)

const (
	PlaceholderSize   = 256
	PlaceholderSource = "placeholder"
)

var defaultPlaceholder = sync.OnceValue(func() []byte {
	return encodeTransparent(PlaceholderSize, PlaceholderSize)
})

// Placeholder returns the default 256x256 fully transparent PNG. The bytes are
// encoded once; every call hands out its own copy.
func Placeholder() model.RawImage {
	return model.RawImage{
		Data:        bytes.Clone(defaultPlaceholder()),
		Source:      PlaceholderSource,
		Placeholder: true,
	}
}

func encodeTransparent(w, h int) []byte {
	// NewRGBA zeroes Pix, which is transparent black.
	img := image.NewRGBA(image.Rect(0, 0, w, h))

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory RGBA into a bytes.Buffer cannot fail.
		panic(err)
	}
	return buf.Bytes()
}
