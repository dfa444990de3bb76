package table

import (
	"image"
	"math"
	"sort"
)

type vec struct{ x, y float64 }

func (a vec) sub(b vec) vec       { return vec{a.x - b.x, a.y - b.y} }
func (a vec) dot(b vec) float64   { return a.x*b.x + a.y*b.y }
func (a vec) cross(b vec) float64 { return a.x*b.y - a.y*b.x }

// rotatedRect is a minimum-area bounding rectangle. Corners are consecutive,
// so Corners[0]-Corners[1] is one side and Corners[1]-Corners[2] the other.
type rotatedRect struct {
	Corners [4]vec
	Width   float64
	Height  float64
}

// Area of the rectangle.
func (r rotatedRect) Area() float64 {
	return r.Width * r.Height
}

// Box returns the corners truncated toward zero.
func (r rotatedRect) Box() [4]image.Point {
	var out [4]image.Point
	for i, c := range r.Corners {
		out[i] = image.Pt(truncate(c.x), truncate(c.y))
	}
	return out
}

// truncate drops the fraction but snaps values that are integral up to
// floating point noise, so 950.9999999 becomes 951.
func truncate(v float64) int {
	if r := math.Round(v); math.Abs(v-r) < 1e-6 {
		return int(r)
	}
	return int(v)
}

// convexHull is Andrew's monotone chain; collinear points are dropped.
func convexHull(pts []image.Point) []vec {
	ps := make([]vec, len(pts))
	for i, p := range pts {
		ps[i] = vec{float64(p.X), float64(p.Y)}
	}
	sort.Slice(ps, func(i, j int) bool {
		if ps[i].x != ps[j].x {
			return ps[i].x < ps[j].x
		}
		return ps[i].y < ps[j].y
	})
	uniq := ps[:0]
	for _, p := range ps {
		if len(uniq) == 0 || p != uniq[len(uniq)-1] {
			uniq = append(uniq, p)
		}
	}
	ps = uniq
	if len(ps) < 3 {
		return ps
	}
	hull := make([]vec, 0, 2*len(ps))
	for _, p := range ps {
		for len(hull) >= 2 && hull[len(hull)-1].sub(hull[len(hull)-2]).cross(p.sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(ps) - 2; i >= 0; i-- {
		p := ps[i]
		for len(hull) >= lower && hull[len(hull)-1].sub(hull[len(hull)-2]).cross(p.sub(hull[len(hull)-2])) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// minAreaRect finds the smallest rectangle, at any rotation, enclosing the
// points. One side of the optimum always lies on a convex hull edge, so each
// edge direction is tried in turn.
func minAreaRect(pts []image.Point) rotatedRect {
	hull := convexHull(pts)
	switch len(hull) {
	case 0:
		return rotatedRect{}
	case 1:
		return rotatedRect{Corners: [4]vec{hull[0], hull[0], hull[0], hull[0]}}
	}

	best := rotatedRect{Width: math.Inf(1), Height: math.Inf(1)}
	bestArea := math.Inf(1)
	for i := range hull {
		e := hull[(i+1)%len(hull)].sub(hull[i])
		n := math.Hypot(e.x, e.y)
		if n == 0 {
			continue
		}
		u := vec{e.x / n, e.y / n}
		v := vec{-u.y, u.x}
		minU, maxU := math.Inf(1), math.Inf(-1)
		minV, maxV := math.Inf(1), math.Inf(-1)
		for _, p := range hull {
			a, b := p.dot(u), p.dot(v)
			minU, maxU = math.Min(minU, a), math.Max(maxU, a)
			minV, maxV = math.Min(minV, b), math.Max(maxV, b)
		}
		area := (maxU - minU) * (maxV - minV)
		if area < bestArea {
			bestArea = area
			at := func(a, b float64) vec {
				return vec{a*u.x + b*v.x, a*u.y + b*v.y}
			}
			best = rotatedRect{
				Corners: [4]vec{at(minU, minV), at(maxU, minV), at(maxU, maxV), at(minU, maxV)},
				Width:   maxU - minU,
				Height:  maxV - minV,
			}
		}
	}
	return best
}
