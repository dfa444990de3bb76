package table

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Grayscale converts any image into an 8-bit intensity plane anchored at (0,0).
func Grayscale(img image.Image) *image.Gray {
	return redPlane(imaging.Grayscale(img))
}

// redPlane copies the red channel of an imaging result (already gray) into an image.Gray.
func redPlane(src *image.NRGBA) *image.Gray {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dst := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := range dst {
			dst[x] = row[x*4]
		}
	}
	return out
}

func gaussianBlur(g *image.Gray, sigma float64) *image.Gray {
	if sigma <= 0 {
		return g
	}
	return redPlane(imaging.Blur(g, sigma))
}

// medianIntensity mirrors numpy's median: the mean of the two middle values
// for an even pixel count.
func medianIntensity(g *image.Gray) float64 {
	var hist [256]int
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	for y := 0; y < h; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+w] {
			hist[v]++
		}
	}
	n := w * h
	if n == 0 {
		return 0
	}
	kth := func(k int) int {
		acc := 0
		for v, c := range hist {
			acc += c
			if acc > k {
				return v
			}
		}
		return 255
	}
	return float64(kth((n-1)/2)+kth(n/2)) / 2
}

// Binarize applies a fixed global threshold and inverts the result: pixels at
// or below threshold become 255 (ink), everything else 0.
func Binarize(img image.Image, threshold uint8) *image.Gray {
	g := Grayscale(img)
	for i, v := range g.Pix {
		if v <= threshold {
			g.Pix[i] = 255
		} else {
			g.Pix[i] = 0
		}
	}
	return g
}

// DarkRatio is the share of pixels at or below threshold.
func DarkRatio(img image.Image, threshold uint8) float64 {
	g := Grayscale(img)
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	if w*h == 0 {
		return 0
	}
	dark := 0
	for y := 0; y < h; y++ {
		for _, v := range g.Pix[y*g.Stride : y*g.Stride+w] {
			if v <= threshold {
				dark++
			}
		}
	}
	return float64(dark) / float64(w*h)
}

// mask is a binary raster; non-zero means set.
type mask struct {
	w, h int
	pix  []uint8
}

func newMask(w, h int) *mask {
	return &mask{w: w, h: h, pix: make([]uint8, w*h)}
}

func (m *mask) at(x, y int) bool {
	if x < 0 || y < 0 || x >= m.w || y >= m.h {
		return false
	}
	return m.pix[y*m.w+x] != 0
}

// dilate3x3 grows the mask with a 3x3 square structuring element, once.
func dilate3x3(m *mask) *mask {
	horiz := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if m.at(x-1, y) || m.at(x, y) || m.at(x+1, y) {
				horiz.pix[y*m.w+x] = 1
			}
		}
	}
	out := newMask(m.w, m.h)
	for y := 0; y < m.h; y++ {
		for x := 0; x < m.w; x++ {
			if horiz.at(x, y-1) || horiz.at(x, y) || horiz.at(x, y+1) {
				out.pix[y*m.w+x] = 1
			}
		}
	}
	return out
}

// toImage renders the mask white-on-black, for debugging output.
func (m *mask) toImage() *image.Gray {
	out := image.NewGray(image.Rect(0, 0, m.w, m.h))
	for i, v := range m.pix {
		if v != 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

var opaqueBlack = color.NRGBA{A: 255}
