package vision

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

var ErrModelUnavailable = errors.New("classifier model unavailable")

// CascadeParams are the DetectMultiScale tuning values for one classifier.
type CascadeParams struct {
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point
}

var (
	FaceParams  = CascadeParams{ScaleFactor: 1.1, MinNeighbors: 5, MinSize: image.Pt(100, 100)}
	SmileParams = CascadeParams{ScaleFactor: 1.7, MinNeighbors: 22, MinSize: image.Pt(25, 25)}
)

// CascadeDetector runs a Haar cascade on grayscale copies of the frames it
// is given. It is safe for concurrent use.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
	params     CascadeParams
	closed     bool
}

// NewCascadeDetector loads the model at path. A missing or unreadable file
// yields ErrModelUnavailable.
func NewCascadeDetector(path string, params CascadeParams) (*CascadeDetector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrModelUnavailable, path, err)
	}
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		_ = classifier.Close()
		return nil, fmt.Errorf("%w: failed to load %s", ErrModelUnavailable, path)
	}
	return &CascadeDetector{classifier: classifier, params: params}, nil
}

func NewFaceDetector(path string) (*CascadeDetector, error) {
	return NewCascadeDetector(path, FaceParams)
}

func NewSmileDetector(path string) (*CascadeDetector, error) {
	return NewCascadeDetector(path, SmileParams)
}

// Detect returns the bounding boxes found in img, in img's coordinate space.
func (d *CascadeDetector) Detect(img image.Image) ([]image.Rectangle, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, nil
	}

	if bounds.Min != (image.Point{}) {
		img = rebase(img)
	}
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, errors.New("detector closed")
	}
	rects := d.classifier.DetectMultiScaleWithParams(
		gray,
		d.params.ScaleFactor,
		d.params.MinNeighbors,
		0,
		d.params.MinSize,
		image.Point{},
	)

	for i := range rects {
		rects[i] = rects[i].Add(bounds.Min)
	}
	return rects, nil
}

// rebase copies img so its bounds start at the origin.
func rebase(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	return d.classifier.Close()
}
