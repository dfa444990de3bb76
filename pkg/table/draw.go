package table

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

// BoundaryColor is the overlay colour used for detected frames.
var BoundaryColor = color.NRGBA{R: 255, A: 255}

// DrawQuad returns a copy of img with the closed outline of q stroked on top.
// Each side is filled as a rectangle with square caps so corners join cleanly.
func DrawQuad(img image.Image, q Quad, c color.Color, thickness float64) *image.NRGBA {
	out := imaging.Clone(img)
	b := out.Bounds()
	if thickness <= 0 {
		thickness = 1
	}
	half := thickness / 2
	src := image.NewUniform(c)
	for i := 0; i < 4; i++ {
		// pixel centres sit at +0.5 in rasterizer space
		a := vec{float64(q[i].X) + 0.5, float64(q[i].Y) + 0.5}
		e := vec{float64(q[(i+1)%4].X) + 0.5, float64(q[(i+1)%4].Y) + 0.5}
		d := e.sub(a)
		n := math.Hypot(d.x, d.y)
		if n == 0 {
			continue
		}
		u := vec{d.x / n * half, d.y / n * half}
		p := vec{-u.y, u.x}
		a = a.sub(u)
		e = vec{e.x + u.x, e.y + u.y}

		z := vector.NewRasterizer(b.Dx(), b.Dy())
		z.MoveTo(float32(a.x+p.x), float32(a.y+p.y))
		z.LineTo(float32(e.x+p.x), float32(e.y+p.y))
		z.LineTo(float32(e.x-p.x), float32(e.y-p.y))
		z.LineTo(float32(a.x-p.x), float32(a.y-p.y))
		z.ClosePath()
		z.Draw(out, b, src, image.Point{})
	}
	return out
}
