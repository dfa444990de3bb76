package table

import (
	"fmt"
	"image"
	"math"
	"sort"
)

// Quad is a table boundary. After OrderCorners the points run clockwise from
// the top-left corner: top-left, top-right, bottom-right, bottom-left.
type Quad [4]image.Point

// OrderCorners returns the corners clockwise from top-left. Points are sorted
// by angle around their centroid (y grows downwards, so ascending angle is
// clockwise on screen) and the sequence is rotated to start at the corner
// with the smallest x+y; on equal sums the upper one wins.
func OrderCorners(pts [4]image.Point) Quad {
	var cx, cy float64
	for _, p := range pts {
		cx += float64(p.X)
		cy += float64(p.Y)
	}
	cx /= 4
	cy /= 4

	idx := []int{0, 1, 2, 3}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := pts[idx[a]], pts[idx[b]]
		return math.Atan2(float64(pa.Y)-cy, float64(pa.X)-cx) < math.Atan2(float64(pb.Y)-cy, float64(pb.X)-cx)
	})

	first := 0
	for k := 1; k < 4; k++ {
		p, best := pts[idx[k]], pts[idx[first]]
		if p.X+p.Y < best.X+best.Y || (p.X+p.Y == best.X+best.Y && p.Y < best.Y) {
			first = k
		}
	}
	var q Quad
	for k := 0; k < 4; k++ {
		q[k] = pts[idx[(first+k)%4]]
	}
	return q
}

// Ordered is shorthand for OrderCorners(q).
func (q Quad) Ordered() Quad {
	return OrderCorners(q)
}

// Validate rejects repeated corners and any three collinear corners.
func (q Quad) Validate() error {
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			if q[i] == q[j] {
				return fmt.Errorf("%w: corner %d repeats corner %d at %v", ErrGeometry, j, i, q[i])
			}
			for k := j + 1; k < 4; k++ {
				if cross(q[i], q[j], q[k]) == 0 {
					return fmt.Errorf("%w: corners %v, %v, %v are collinear", ErrGeometry, q[i], q[j], q[k])
				}
			}
		}
	}
	return nil
}

// Flatten returns x1, y1, ... x4, y4.
func (q Quad) Flatten() []int {
	out := make([]int, 0, 8)
	for _, p := range q {
		out = append(out, p.X, p.Y)
	}
	return out
}

// QuadFromCoords builds a quad from eight integers in x, y order.
func QuadFromCoords(coords []int) (Quad, error) {
	var q Quad
	if len(coords) != 8 {
		return q, fmt.Errorf("%w: expected 8 coordinates, got %d", ErrGeometry, len(coords))
	}
	for i := 0; i < 4; i++ {
		q[i] = image.Pt(coords[2*i], coords[2*i+1])
	}
	return q, nil
}

func cross(a, b, c image.Point) int {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func distance(a, b image.Point) float64 {
	return math.Hypot(float64(a.X-b.X), float64(a.Y-b.Y))
}
