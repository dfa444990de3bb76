package table

import (
	"errors"
	"image"
	"math"
	"testing"
)

func TestBoundsUniform(t *testing.T) {
	spec := GridSpec{Rows: 7, Columns: 5}
	bs, err := spec.Bounds(903, 1303)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	if len(bs) != 35 || spec.CellCount() != 35 {
		t.Fatalf("got %d cells", len(bs))
	}
	if bs[0].Rect != image.Rect(0, 0, 180, 186) {
		t.Fatalf("first cell %v", bs[0].Rect)
	}
	last := bs[len(bs)-1]
	if last.Row != 6 || last.Column != 4 || last.Rect != image.Rect(720, 1116, 900, 1302) {
		t.Fatalf("last cell %+v", last)
	}
}

func TestBoundsRatios(t *testing.T) {
	spec := GridSpec{Rows: 2, Ratios: [][]float64{{0.5}, {0.25, 0.5, 0.75}}}
	bs, err := spec.Bounds(400, 200)
	if err != nil {
		t.Fatalf("bounds: %v", err)
	}
	if len(bs) != 6 || spec.CellCount() != 6 {
		t.Fatalf("got %d cells", len(bs))
	}
	if bs[1].Rect != image.Rect(200, 0, 400, 100) {
		t.Fatalf("row 0 col 1 %v", bs[1].Rect)
	}
	if bs[3].Row != 1 || bs[3].Column != 1 || bs[3].Rect != image.Rect(100, 100, 200, 200) {
		t.Fatalf("row 1 col 1 %+v", bs[3])
	}
}

func TestGridSpecValidate(t *testing.T) {
	bad := []GridSpec{
		{Rows: 0, Columns: 5},
		{Rows: 3, Columns: 0},
		{Rows: 2, Ratios: [][]float64{{0.5}}},
		{Rows: 1, Ratios: [][]float64{{0.5, 0.4}}},
		{Rows: 1, Ratios: [][]float64{{0, 0.5}}},
		{Rows: 1, Ratios: [][]float64{{0.5, 1}}},
		{Rows: 1, Ratios: [][]float64{{math.NaN()}}},
		{Rows: 1, Ratios: [][]float64{{0.25, math.NaN(), 0.75}}},
	}
	for _, s := range bad {
		if err := s.Validate(); !errors.Is(err, ErrGeometry) {
			t.Errorf("%+v: expected ErrGeometry, got %v", s, err)
		}
	}
	if err := (GridSpec{Rows: 1, Ratios: [][]float64{{}}}).Validate(); err != nil {
		t.Errorf("single-column ratio row rejected: %v", err)
	}
}

func TestBoundsDegenerate(t *testing.T) {
	if _, err := (GridSpec{Rows: 2, Columns: 500}).Bounds(100, 100); !errors.Is(err, ErrGeometry) {
		t.Fatalf("too many columns: %v", err)
	}
	if _, err := (GridSpec{Rows: 200, Columns: 2}).Bounds(100, 100); !errors.Is(err, ErrGeometry) {
		t.Fatalf("too many rows: %v", err)
	}
	narrow := GridSpec{Rows: 1, Ratios: [][]float64{{0.01, 0.02}}}
	if _, err := narrow.Bounds(10, 10); !errors.Is(err, ErrGeometry) {
		t.Fatalf("zero-width ratio column: %v", err)
	}
}

func TestPartitionSquares(t *testing.T) {
	r := &Rectified{Image: canvas(400, 200), Width: 400, Height: 200}
	cells, err := Partition(r, GridSpec{Rows: 2, Ratios: [][]float64{{0.5}, {0.25, 0.5, 0.75}}})
	if err != nil {
		t.Fatalf("partition: %v", err)
	}
	if len(cells) != 6 {
		t.Fatalf("got %d cells", len(cells))
	}
	for _, c := range cells {
		b := c.Image.Bounds()
		side := max(c.Rect.Dx(), c.Rect.Dy())
		if b.Dx() != side || b.Dy() != side {
			t.Fatalf("cell %d_%d is %v, want %dx%d", c.Row, c.Column, b, side, side)
		}
	}
}

func TestHeaderStrip(t *testing.T) {
	img := canvas(1000, 1400)
	strip, ok := HeaderStrip(img, Quad{{50, 50}, {950, 50}, {950, 1350}, {50, 1350}})
	if !ok {
		t.Fatalf("expected header")
	}
	if strip.Bounds().Dx() != 900 || strip.Bounds().Dy() != 50 {
		t.Fatalf("header %v", strip.Bounds())
	}
	if _, ok := HeaderStrip(img, Quad{{50, 0}, {950, 0}, {950, 1350}, {50, 1350}}); ok {
		t.Fatalf("no header expected when the table touches the top")
	}
}
