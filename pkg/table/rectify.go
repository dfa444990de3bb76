package table

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// Rectified is the table after perspective correction. Width and Height are
// the longer of each pair of opposite source edges.
type Rectified struct {
	Image  *image.NRGBA
	Width  int
	Height int
}

// Rectify warps the quad q (clockwise from top-left) onto an axis-aligned
// canvas. The result depends only on the image and the corners.
func Rectify(img image.Image, q Quad) (*Rectified, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	w := math.Max(distance(q[0], q[1]), distance(q[2], q[3]))
	h := math.Max(distance(q[0], q[3]), distance(q[1], q[2]))
	width, height := int(w), int(h)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: rectified size %dx%d", ErrGeometry, width, height)
	}

	var src [4]vec
	for i, p := range q {
		src[i] = vec{float64(p.X), float64(p.Y)}
	}
	dst := [4]vec{{0, 0}, {w, 0}, {w, h}, {0, h}}
	// sampling walks destination pixels, so solve for destination -> source
	hm, err := homography(dst, src)
	if err != nil {
		return nil, err
	}

	in := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			fx, fy := float64(x), float64(y)
			den := hm[6]*fx + hm[7]*fy + hm[8]
			if den == 0 {
				out.SetNRGBA(x, y, opaqueBlack)
				continue
			}
			sx := (hm[0]*fx + hm[1]*fy + hm[2]) / den
			sy := (hm[3]*fx + hm[4]*fy + hm[5]) / den
			out.SetNRGBA(x, y, bilinear(in, sx, sy))
		}
	}
	return &Rectified{Image: out, Width: width, Height: height}, nil
}

// homography solves the projective transform taking from[i] to to[i].
// The returned matrix is row-major with h[8] == 1.
func homography(from, to [4]vec) ([9]float64, error) {
	var a [8][9]float64
	for i := 0; i < 4; i++ {
		x, y := from[i].x, from[i].y
		u, v := to[i].x, to[i].y
		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}
	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return [9]float64{}, fmt.Errorf("%w: singular perspective transform", ErrGeometry)
		}
		a[col], a[pivot] = a[pivot], a[col]
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := a[r][col] / a[col][col]
			for k := col; k < 9; k++ {
				a[r][k] -= f * a[col][k]
			}
		}
	}
	var h [9]float64
	for i := 0; i < 8; i++ {
		h[i] = a[i][8] / a[i][i]
	}
	h[8] = 1
	return h, nil
}

// bilinear samples src at a fractional position; outside pixels are opaque black.
func bilinear(src *image.NRGBA, x, y float64) color.NRGBA {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	fx, fy := x-float64(x0), y-float64(y0)
	b := src.Bounds()
	px := func(px, py int) [4]float64 {
		if px < b.Min.X || py < b.Min.Y || px >= b.Max.X || py >= b.Max.Y {
			return [4]float64{0, 0, 0, 255}
		}
		i := src.PixOffset(px, py)
		s := src.Pix[i : i+4 : i+4]
		return [4]float64{float64(s[0]), float64(s[1]), float64(s[2]), float64(s[3])}
	}
	p00, p10 := px(x0, y0), px(x0+1, y0)
	p01, p11 := px(x0, y0+1), px(x0+1, y0+1)
	var c [4]uint8
	for k := 0; k < 4; k++ {
		top := p00[k]*(1-fx) + p10[k]*fx
		bot := p01[k]*(1-fx) + p11[k]*fx
		c[k] = uint8(math.Round(top*(1-fy) + bot*fy))
	}
	return color.NRGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}
