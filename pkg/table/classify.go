package table

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// CellType is the classification stored in the manifest.
type CellType string

const (
	CellText  CellType = "text"
	CellEmpty CellType = "empty"
)

// ClassifyOptions tunes the cell classifier.
type ClassifyOptions struct {
	Threshold  uint8   `yaml:"threshold"`   // gray level at or below which a pixel is ink
	EmptyAbove float64 `yaml:"empty_above"` // dark ratio strictly above this is "empty"
	MarginX    float64 `yaml:"margin_x"`    // share of width dropped on each side
	MarginY    float64 `yaml:"margin_y"`    // share of height dropped top and bottom
}

// DefaultClassifyOptions trims grid-line residue: 17% from each side and 8%
// from top and bottom.
func DefaultClassifyOptions() ClassifyOptions {
	return ClassifyOptions{
		Threshold:  127,
		EmptyAbove: 0.95,
		MarginX:    0.17,
		MarginY:    0.08,
	}
}

// ClassifyRatio maps a dark-pixel ratio to a cell type. A nearly solid cell
// (ratio > emptyAbove) counts as empty, not text: it is a blocked-out box.
func ClassifyRatio(ratio, emptyAbove float64) CellType {
	if ratio > emptyAbove {
		return CellEmpty
	}
	return CellText
}

// Classify inset-crops the cell, binarizes it and returns its type together
// with the dark-pixel ratio of the inner region.
func Classify(img image.Image, opts ClassifyOptions) (CellType, float64, error) {
	b := img.Bounds()
	mx := int(float64(b.Dx()) * opts.MarginX)
	my := int(float64(b.Dy()) * opts.MarginY)
	inner := image.Rect(b.Min.X+mx, b.Min.Y+my, b.Max.X-mx, b.Max.Y-my)
	if inner.Empty() {
		return "", 0, fmt.Errorf("%w: cell %v has no interior after margins", ErrGeometry, b)
	}
	ratio := DarkRatio(imaging.Crop(img, inner), opts.Threshold)
	return ClassifyRatio(ratio, opts.EmptyAbove), ratio, nil
}
