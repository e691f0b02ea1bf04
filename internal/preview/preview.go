package preview

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const dataURLPrefix = "data:image/jpeg;base64,"

// Encoder turns camera frames into JPEG data URLs that fit a preview box.
type Encoder struct {
	width   int
	height  int
	quality int
}

func NewEncoder(width, height int) *Encoder {
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}
	return &Encoder{width: width, height: height, quality: 75}
}

// Fit scales img down, keeping its aspect ratio, until it fits the box.
// Smaller images are returned unchanged.
func (e *Encoder) Fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= e.width && b.Dy() <= e.height {
		return img
	}
	w, h := e.width, b.Dy()*e.width/b.Dx()
	if h > e.height {
		w, h = b.Dx()*e.height/b.Dy(), e.height
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// DataURL returns the scaled frame as a base64 JPEG data URL.
func (e *Encoder) DataURL(img image.Image) (string, error) {
	if img == nil || img.Bounds().Empty() {
		return "", errors.New("empty frame")
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, e.Fit(img), &jpeg.Options{Quality: e.quality}); err != nil {
		return "", fmt.Errorf("encode preview: %w", err)
	}
	return dataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
