package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"sync"

	draw "golang.org/x/image/draw"
)

const jpegDataURIPrefix = "data:image/jpeg;base64,"

// ImageOptimizer downscales frames and encodes them as JPEG. Quality and scale
// can be changed at runtime.
type ImageOptimizer struct {
	mu      sync.RWMutex
	quality int
	scale   float64
}

// NewImageOptimizer creates an optimizer with the given JPEG quality and scale factor
func NewImageOptimizer(quality int, scale float64) *ImageOptimizer {
	o := &ImageOptimizer{}
	o.SetQuality(quality)
	o.SetScale(scale)
	return o
}

// SetQuality clamps quality to 1..100
func (o *ImageOptimizer) SetQuality(quality int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.quality = min(max(quality, 1), 100)
}

// SetScale sets the downscale factor; values outside (0,1] disable scaling
func (o *ImageOptimizer) SetScale(scale float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if scale <= 0 || scale > 1 || math.IsNaN(scale) {
		scale = 1
	}
	o.scale = scale
}

// Quality returns the current JPEG quality
func (o *ImageOptimizer) Quality() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.quality
}

// Scale returns the current downscale factor
func (o *ImageOptimizer) Scale() float64 {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.scale
}

// resizeIfNeeded scales the image down by the configured factor
func (o *ImageOptimizer) resizeIfNeeded(img image.Image) image.Image {
	scale := o.Scale()
	if scale >= 1 {
		return img
	}

	bounds := img.Bounds()
	newWidth := max(int(math.Round(float64(bounds.Dx())*scale)), 1)
	newHeight := max(int(math.Round(float64(bounds.Dy())*scale)), 1)

	resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
	return resized
}

// EncodeJPEG resizes and encodes img
func (o *ImageOptimizer) EncodeJPEG(img image.Image) ([]byte, error) {
	img = o.resizeIfNeeded(img)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: o.Quality()}); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// DataURI encodes img as a base64 JPEG data URI
func (o *ImageOptimizer) DataURI(img image.Image) (string, error) {
	data, err := o.EncodeJPEG(img)
	if err != nil {
		return "", err
	}
	return jpegDataURIPrefix + base64.StdEncoding.EncodeToString(data), nil
}
