package match

import (
	"image"
	"math"
)

// plane is a binary raster with values 0 or 1.
type plane struct {
	w, h int
	pix  []uint8
	ones int64
}

func newPlane(g *image.Gray) *plane {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	p := &plane{w: w, h: h, pix: make([]uint8, w*h)}
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, v := range row {
			if v != 0 {
				p.pix[y*w+x] = 1
				p.ones++
			}
		}
	}
	return p
}

// integral is a summed-area table with one row and column of zero padding.
type integral struct {
	w   int
	sum []int64
}

func newIntegral(p *plane) *integral {
	w := p.w + 1
	s := make([]int64, w*(p.h+1))
	for y := 0; y < p.h; y++ {
		var row int64
		for x := 0; x < p.w; x++ {
			row += int64(p.pix[y*p.w+x])
			s[(y+1)*w+x+1] = s[y*w+x+1] + row
		}
	}
	return &integral{w: w, sum: s}
}

func (t *integral) window(x, y, w, h int) int64 {
	return t.sum[(y+h)*t.w+x+w] - t.sum[y*t.w+x+w] - t.sum[(y+h)*t.w+x] + t.sum[y*t.w+x]
}

// matchTemplate slides tpl over img and returns the maximum of the
// mean-subtracted normalized correlation together with the first location
// (raster order) reaching it. When the template is at least as large as the
// image in both dimensions the roles are swapped; when it is larger in only
// one dimension there is nothing to compare and ok is false.
func matchTemplate(img, tpl *plane) (score float64, loc image.Point, ok bool) {
	if tpl.w > img.w || tpl.h > img.h {
		if tpl.w < img.w || tpl.h < img.h {
			return 0, image.Point{}, false
		}
		img, tpl = tpl, img
	}
	n := int64(tpl.w * tpl.h)
	st := tpl.ones
	tplVar := n*st - st*st
	if tplVar == 0 {
		// a flat template correlates perfectly everywhere
		return 1, image.Point{}, true
	}

	offs := make([]int, 0, st)
	for y := 0; y < tpl.h; y++ {
		for x := 0; x < tpl.w; x++ {
			if tpl.pix[y*tpl.w+x] != 0 {
				offs = append(offs, y*img.w+x)
			}
		}
	}
	sat := newIntegral(img)
	score = math.Inf(-1)
	for y := 0; y+tpl.h <= img.h; y++ {
		for x := 0; x+tpl.w <= img.w; x++ {
			si := sat.window(x, y, tpl.w, tpl.h)
			var r float64
			if winVar := n*si - si*si; winVar > 0 {
				base := y*img.w + x
				var sti int64
				for _, o := range offs {
					sti += int64(img.pix[base+o])
				}
				r = normalize(float64(n*sti-st*si), math.Sqrt(float64(tplVar)*float64(winVar)))
			}
			if r > score {
				score, loc = r, image.Pt(x, y)
			}
		}
	}
	return score, loc, true
}

// normalize divides the correlation by its norm, snapping rounding overshoot
// up to 12.5% to +-1 and anything beyond to 0.
func normalize(num, norm float64) float64 {
	switch a := math.Abs(num); {
	case a < norm:
		return num / norm
	case a < norm*1.125:
		if num > 0 {
			return 1
		}
		return -1
	}
	return 0
}
