package table

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Rotate turns the image clockwise by a multiple of 90 degrees.
func Rotate(img image.Image, angle int) (*image.NRGBA, error) {
	switch angle {
	case 0:
		return imaging.Clone(img), nil
	case 90:
		return imaging.Rotate270(img), nil // imaging rotates counter-clockwise
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	}
	return nil, fmt.Errorf("%w: %d (use 0, 90, 180 or 270)", ErrUnsupportedAngle, angle)
}
