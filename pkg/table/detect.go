package table

import (
	"fmt"
	"image"
)

// DetectOptions tunes the boundary detector.
type DetectOptions struct {
	MinArea    float64 `yaml:"min_area"`    // contours enclosing less are noise
	MaxAspect  float64 `yaml:"max_aspect"`  // long side / short side cut-off
	Dilate     bool    `yaml:"dilate"`      // close broken edges with one 3x3 dilation
	LowFactor  float64 `yaml:"low_factor"`  // low hysteresis threshold = LowFactor * median
	HighFactor float64 `yaml:"high_factor"` // high hysteresis threshold = HighFactor * median
	BlurSigma  float64 `yaml:"blur_sigma"`  // Gaussian sigma, 1.1 matches a 5x5 kernel
}

// DefaultDetectOptions returns the empirically tuned detector settings.
func DefaultDetectOptions() DetectOptions {
	return DetectOptions{
		MinArea:    5000,
		MaxAspect:  10,
		Dilate:     true,
		LowFactor:  0.66,
		HighFactor: 1.33,
		BlurSigma:  1.1,
	}
}

// EdgeMap returns the (optionally dilated) edge raster the detector works on.
func EdgeMap(img image.Image, opts DetectOptions) *image.Gray {
	return edgeMask(Grayscale(img), opts).toImage()
}

func edgeMask(gray *image.Gray, opts DetectOptions) *mask {
	low, high := cannyThresholds(medianIntensity(gray), opts.LowFactor, opts.HighFactor)
	edges := canny(gaussianBlur(gray, opts.BlurSigma), low, high)
	if opts.Dilate {
		edges = dilate3x3(edges)
	}
	return edges
}

// DetectBoundary finds the largest plausible rectangular frame in the photo
// and returns its minimum-area rectangle corners in canonical order.
// Contours smaller than MinArea or whose rectangle is more elongated than
// MaxAspect are ignored; among the rest the largest area wins and the first
// one found wins a tie.
func DetectBoundary(img image.Image, opts DetectOptions) (Quad, error) {
	contours := findContours(edgeMask(Grayscale(img), opts))

	var best [4]image.Point
	maxArea := 0.0
	found := false
	for _, c := range contours {
		area := c.Area()
		if area < opts.MinArea {
			continue
		}
		box := minAreaRect(c.Points).Box()
		w, h := distance(box[0], box[1]), distance(box[1], box[2])
		long, short := w, h
		if short > long {
			long, short = short, long
		}
		if short == 0 || long/short > opts.MaxAspect {
			continue
		}
		if area > maxArea {
			maxArea = area
			best = box
			found = true
		}
	}
	if !found {
		return Quad{}, fmt.Errorf("%w: %d contours examined", ErrDetection, len(contours))
	}
	return OrderCorners(best), nil
}
