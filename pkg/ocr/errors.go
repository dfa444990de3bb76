package ocr

import "errors"

// ErrEmptyImage is returned when a cell has no pixels to recognize.
var ErrEmptyImage = errors.New("ocr: empty image")
