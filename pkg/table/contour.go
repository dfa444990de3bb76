package table

import (
	"image"
	"math"
)

// Contour is a closed border traced on a binary raster. Hole borders are
// reported alongside outer borders, so nested frames are all candidates.
type Contour struct {
	Points []image.Point
	Hole   bool
}

// Area is the shoelace area of the closed polygon through the points.
func (c Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	var s int
	for i, p := range c.Points {
		q := c.Points[(i+1)%n]
		s += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(s)) / 2
}

// neighbour directions, clockwise on screen starting east
var (
	dirX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dirY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

// findContours runs Suzuki–Abe border following over the whole raster and
// returns every outer and hole border in scan order.
func findContours(m *mask) []Contour {
	W, H := m.w+2, m.h+2
	f := make([]int32, W*H)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if m.pix[y*m.w+x] != 0 {
				f[(y+1)*W+x+1] = 1
			}
		}
	}
	var off [8]int
	for d := range off {
		off[d] = dirY[d]*W + dirX[d]
	}

	var out []Contour
	nbd := int32(1)
	for y := 1; y < H-1; y++ {
		for x := 1; x < W-1; x++ {
			i := y*W + x
			v := f[i]
			var from int
			var hole bool
			switch {
			case v == 1 && f[i-1] == 0:
				from = 4
			case v >= 1 && f[i+1] == 0:
				from, hole = 0, true
			default:
				continue
			}
			nbd++
			idx := followBorder(f, off, i, from, nbd)
			pts := make([]image.Point, len(idx))
			for k, j := range idx {
				pts[k] = image.Pt(j%W-1, j/W-1)
			}
			out = append(out, Contour{Points: pts, Hole: hole})
		}
	}
	return out
}

// followBorder traces one border starting at start, whose zero neighbour lies
// in direction from, labelling visited pixels with nbd or -nbd.
func followBorder(f []int32, off [8]int, start, from int, nbd int32) []int {
	first := -1
	for k := 0; k < 8; k++ {
		d := (from + k) % 8
		if f[start+off[d]] != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		f[start] = -nbd
		return []int{start}
	}

	i1 := start + off[first]
	i3 := start
	back := first // direction from i3 to the previously visited pixel
	var pts []int
	for {
		pts = append(pts, i3)
		eastZero := false
		next, nextDir := -1, 0
		for k := 1; k <= 8; k++ {
			d := (back - k + 16) % 8
			j := i3 + off[d]
			if f[j] != 0 {
				next, nextDir = j, d
				break
			}
			if d == 0 {
				eastZero = true
			}
		}
		if eastZero {
			f[i3] = -nbd
		} else if f[i3] == 1 {
			f[i3] = nbd
		}
		if next == start && i3 == i1 {
			return pts
		}
		i3 = next
		back = (nextDir + 4) % 8
	}
}
