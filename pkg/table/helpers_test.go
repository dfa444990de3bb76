package table

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
	"golang.org/x/image/vector"
)

var (
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
)

func canvas(w, h int) *image.NRGBA {
	return imaging.New(w, h, white)
}

func fillRect(img *image.NRGBA, r image.Rectangle, c color.NRGBA) *image.NRGBA {
	return imaging.Paste(img, imaging.New(r.Dx(), r.Dy(), c), r.Min)
}

// fillPolygon paints a closed polygon given in pixel coordinates.
func fillPolygon(img *image.NRGBA, pts []vec, c color.NRGBA) {
	z := vector.NewRasterizer(img.Bounds().Dx(), img.Bounds().Dy())
	z.MoveTo(float32(pts[0].x), float32(pts[0].y))
	for _, p := range pts[1:] {
		z.LineTo(float32(p.x), float32(p.y))
	}
	z.ClosePath()
	z.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{})
}

// frame draws a rectangular outline of the given line width inside r.
func frame(img *image.NRGBA, r image.Rectangle, line int) *image.NRGBA {
	img = fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+line), black)
	img = fillRect(img, image.Rect(r.Min.X, r.Max.Y-line, r.Max.X, r.Max.Y), black)
	img = fillRect(img, image.Rect(r.Min.X, r.Min.Y, r.Min.X+line, r.Max.Y), black)
	return fillRect(img, image.Rect(r.Max.X-line, r.Min.Y, r.Max.X, r.Max.Y), black)
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func quadArea(q Quad) float64 {
	var s int
	for i := range q {
		a, b := q[i], q[(i+1)%4]
		s += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(float64(s)) / 2
}

func near(a, b image.Point, tol int) bool {
	return abs(a.X-b.X) <= tol && abs(a.Y-b.Y) <= tol
}
