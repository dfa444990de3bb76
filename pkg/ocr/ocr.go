package ocr

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Recognizer runs Tesseract on single table cells. A new client is created
// per call, so one Recognizer may be shared between goroutines.
type Recognizer struct {
	Language       string
	TessdataPrefix string
}

// NewRecognizer returns a recognizer for language ("jpn" when empty).
func NewRecognizer(language, tessdataPrefix string) *Recognizer {
	if language == "" {
		language = "jpn"
	}
	return &Recognizer{Language: language, TessdataPrefix: tessdataPrefix}
}

// Recognize preprocesses the cell and returns its text as a single block,
// whitespace-normalized.
func (r *Recognizer) Recognize(img image.Image) (string, error) {
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return "", ErrEmptyImage
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, Preprocess(img), imaging.PNG); err != nil {
		return "", fmt.Errorf("encode cell: %w", err)
	}

	client := gosseract.NewClient()
	defer client.Close()
	if r.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(r.TessdataPrefix); err != nil {
			return "", fmt.Errorf("tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(r.Language); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("set page mode: %w", err)
	}
	if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract OCR failed: %w", err)
	}
	return normalizeOCRText(text), nil
}
