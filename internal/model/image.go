package model

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
)

const ContentTypePNG = "image/png"

// RawImage is an owned, encoded image buffer handed from a fetcher to the
// compositor exactly once.
type RawImage struct {
	Data []byte
	// Source names the upstream (or generator) that produced Data.
	Source string
	// Placeholder is set when Data is a synthetic substitute for a failed fetch.
	Placeholder bool
}

// Config decodes only the image header to get its dimensions and format.
func (r RawImage) Config() (image.Config, string, error) {
	return image.DecodeConfig(bytes.NewReader(r.Data))
}

// CompositeResult is the terminal value of a successful render.
type CompositeResult struct {
	Data         []byte
	ContentType  string
	BaseDegraded bool
}
