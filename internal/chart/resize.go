package chart

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// Canvas size of every served chart. Aspect ratio is not preserved.
const (
	CanvasWidth  = 1000
	CanvasHeight = 1000
)

// Resize reopens src, stretches it to the fixed canvas and writes dst.
// The output format follows the dst extension.
func Resize(src, dst string) error {
	img, err := imaging.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrResize, src, err)
	}
	resized := imaging.Resize(img, CanvasWidth, CanvasHeight, imaging.Lanczos)
	if err := imaging.Save(resized, dst, imaging.JPEGQuality(90)); err != nil {
		return fmt.Errorf("%w: save %s: %v", ErrResize, dst, err)
	}
	return nil
}
