package table

import (
	"bytes"
	"errors"
	"image"
	"testing"
)

func TestClassifyRatioBoundary(t *testing.T) {
	cases := []struct {
		ratio float64
		want  CellType
	}{
		{0.0, CellText},
		{0.5, CellText},
		{0.95, CellText},
		{0.96, CellEmpty},
		{1.0, CellEmpty},
	}
	for _, c := range cases {
		if got := ClassifyRatio(c.ratio, 0.95); got != c.want {
			t.Errorf("ratio %v: got %s want %s", c.ratio, got, c.want)
		}
	}
}

func TestClassifyIgnoresBorderLines(t *testing.T) {
	cell := frame(canvas(100, 100), image.Rect(0, 0, 100, 100), 5)
	typ, ratio, err := Classify(cell, DefaultClassifyOptions())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if typ != CellText || ratio != 0 {
		t.Fatalf("got %s %v", typ, ratio)
	}
}

func TestClassifySolidCellIsEmpty(t *testing.T) {
	cell := fillRect(canvas(100, 100), image.Rect(0, 0, 100, 100), black)
	typ, ratio, err := Classify(cell, DefaultClassifyOptions())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if typ != CellEmpty || ratio != 1 {
		t.Fatalf("got %s %v", typ, ratio)
	}
}

func TestClassifyPartialInk(t *testing.T) {
	// inner region is x 17..83, y 8..92 (66x84); ink covers 66x42 of it
	cell := fillRect(canvas(100, 100), image.Rect(0, 8, 100, 50), black)
	_, ratio, err := Classify(cell, DefaultClassifyOptions())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if ratio != 0.5 {
		t.Fatalf("ratio %v, want 0.5", ratio)
	}
}

func TestClassifyNoInterior(t *testing.T) {
	opts := DefaultClassifyOptions()
	opts.MarginX = 0.5
	_, _, err := Classify(canvas(100, 100), opts)
	if !errors.Is(err, ErrGeometry) {
		t.Fatalf("expected ErrGeometry, got %v", err)
	}
}

func TestBinarizeInverts(t *testing.T) {
	img := fillRect(canvas(4, 1), image.Rect(0, 0, 2, 1), black)
	g := Binarize(img, 127)
	if !bytes.Equal(g.Pix, []uint8{255, 255, 0, 0}) {
		t.Fatalf("pix %v", g.Pix)
	}
}
