package table

import "errors"

// ErrDetection is returned when no contour survives the area and aspect filters.
var ErrDetection = errors.New("no plausible table boundary found")

// ErrGeometry is returned for degenerate corners, zero-sized crops and malformed grids.
var ErrGeometry = errors.New("degenerate table geometry")

// ErrDecode is returned when the input bytes are not a decodable image.
var ErrDecode = errors.New("invalid image data")

// ErrUnsupportedAngle is returned by Rotate for angles other than 0, 90, 180 and 270.
var ErrUnsupportedAngle = errors.New("unsupported rotation angle")
