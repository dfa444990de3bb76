package table

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// GridSpec describes how a rectified table splits into cells. With Ratios
// empty every row has Columns equal columns; otherwise Ratios holds, for each
// row, the interior column boundaries as fractions of the table width and
// Columns is ignored. Row height is always uniform.
type GridSpec struct {
	Rows    int         `yaml:"rows" json:"rows"`
	Columns int         `yaml:"columns" json:"columns"`
	Ratios  [][]float64 `yaml:"ratios,omitempty" json:"ratios,omitempty"`
}

// Uniform reports whether every row shares the same equal-width columns.
func (s GridSpec) Uniform() bool {
	return len(s.Ratios) == 0
}

// Validate checks the grid shape before any pixel work.
func (s GridSpec) Validate() error {
	if s.Rows < 1 {
		return fmt.Errorf("%w: grid needs at least one row, got %d", ErrGeometry, s.Rows)
	}
	if s.Uniform() {
		if s.Columns < 1 {
			return fmt.Errorf("%w: grid needs at least one column, got %d", ErrGeometry, s.Columns)
		}
		return nil
	}
	if len(s.Ratios) != s.Rows {
		return fmt.Errorf("%w: %d ratio rows for %d grid rows", ErrGeometry, len(s.Ratios), s.Rows)
	}
	for r, row := range s.Ratios {
		prev := 0.0
		for _, v := range row {
			if !(v > prev && v < 1) {
				return fmt.Errorf("%w: row %d ratios %v must increase strictly inside (0,1)", ErrGeometry, r, row)
			}
			prev = v
		}
	}
	return nil
}

// ColumnsIn returns the number of columns of row r.
func (s GridSpec) ColumnsIn(r int) int {
	if s.Uniform() {
		return s.Columns
	}
	return len(s.Ratios[r]) + 1
}

// CellCount is the total number of cells the grid produces.
func (s GridSpec) CellCount() int {
	n := 0
	for r := 0; r < s.Rows; r++ {
		n += s.ColumnsIn(r)
	}
	return n
}

// CellBounds is the pixel rectangle of one cell in the rectified table.
type CellBounds struct {
	Row    int
	Column int
	Rect   image.Rectangle
}

// Bounds lays the grid over a width x height table, row-major. Any cell
// collapsing to zero width or height rejects the whole grid.
func (s GridSpec) Bounds(width, height int) ([]CellBounds, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cellH := height / s.Rows
	if cellH <= 0 {
		return nil, fmt.Errorf("%w: row height is zero (%d rows over %d px)", ErrGeometry, s.Rows, height)
	}
	out := make([]CellBounds, 0, s.CellCount())
	for r := 0; r < s.Rows; r++ {
		y := r * cellH
		xs, err := s.columnEdges(r, width)
		if err != nil {
			return nil, err
		}
		for c := 0; c+1 < len(xs); c++ {
			out = append(out, CellBounds{Row: r, Column: c, Rect: image.Rect(xs[c], y, xs[c+1], y+cellH)})
		}
	}
	return out, nil
}

func (s GridSpec) columnEdges(r, width int) ([]int, error) {
	if s.Uniform() {
		cellW := width / s.Columns
		if cellW <= 0 {
			return nil, fmt.Errorf("%w: column width is zero (%d columns over %d px)", ErrGeometry, s.Columns, width)
		}
		xs := make([]int, s.Columns+1)
		for c := range xs {
			xs[c] = c * cellW
		}
		return xs, nil
	}
	xs := []int{0}
	for _, v := range s.Ratios[r] {
		xs = append(xs, int(v*float64(width)))
	}
	xs = append(xs, width)
	for c := 0; c+1 < len(xs); c++ {
		if xs[c+1] <= xs[c] {
			return nil, fmt.Errorf("%w: row %d column %d has zero width", ErrGeometry, r, c)
		}
	}
	return xs, nil
}

// Cell is one cropped cell, stretched to a square whose side is the larger
// of its own width and height. Aspect ratio is not preserved.
type Cell struct {
	Row    int
	Column int
	Rect   image.Rectangle
	Image  *image.NRGBA
}

// Partition crops every grid cell out of the rectified table.
func Partition(t *Rectified, spec GridSpec) ([]Cell, error) {
	bounds, err := spec.Bounds(t.Width, t.Height)
	if err != nil {
		return nil, err
	}
	cells := make([]Cell, 0, len(bounds))
	for _, b := range bounds {
		crop := imaging.Crop(t.Image, b.Rect)
		if crop.Bounds().Empty() {
			return nil, fmt.Errorf("%w: cell %d_%d crop %v is empty", ErrGeometry, b.Row, b.Column, b.Rect)
		}
		side := max(b.Rect.Dx(), b.Rect.Dy())
		cells = append(cells, Cell{
			Row:    b.Row,
			Column: b.Column,
			Rect:   b.Rect,
			Image:  imaging.Resize(crop, side, side, imaging.Linear),
		})
	}
	return cells, nil
}

// HeaderStrip cuts the band of the source photo above the table's top-left
// corner, spanning the top edge horizontally. ok is false when there is no
// room above the table.
func HeaderStrip(img image.Image, q Quad) (strip *image.NRGBA, ok bool) {
	b := img.Bounds()
	r := image.Rect(b.Min.X+q[0].X, b.Min.Y, b.Min.X+q[1].X, b.Min.Y+q[0].Y).Intersect(b)
	if r.Empty() {
		return nil, false
	}
	return imaging.Crop(img, r), true
}
