package ocr

import (
	"image"
	"math"
	"sort"

	"github.com/disintegration/imaging"
)

// Preprocess prepares a table cell for Tesseract: light blur to soften
// ruling lines, inverted adaptive threshold, 5x5 median to drop line
// residue, then a 2x2 closing to reconnect strokes. The result is dark text
// on a white background.
func Preprocess(img image.Image) *image.Gray {
	gray := toGray(imaging.Blur(imaging.Grayscale(img), 0.8))
	ink := adaptiveThreshold(gray, 11, 2)
	ink = medianFilter(ink, 5)
	ink = erode2x2(dilate2x2(ink))
	for i, v := range ink.Pix {
		ink.Pix[i] = 255 - v
	}
	return ink
}

func toGray(src *image.NRGBA) *image.Gray {
	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Pix[y*w+x] = src.Pix[y*src.Stride+x*4]
		}
	}
	return out
}

// adaptiveThreshold marks a pixel as ink (255) when it is at least bias
// levels darker than the Gaussian-weighted mean of its window x window
// neighbourhood. Border pixels are replicated.
func adaptiveThreshold(g *image.Gray, window int, bias int) *image.Gray {
	if window < 3 {
		window = 3
	}
	if window%2 == 0 {
		window++
	}
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	kernel := gaussianKernel(window)
	half := window / 2

	// separable: rows into tmp, then columns
	tmp := make([]float64, w*h)
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < w; x++ {
			var acc float64
			for k, wt := range kernel {
				xx := min(max(x+k-half, 0), w-1)
				acc += wt * float64(row[xx])
			}
			tmp[y*w+x] = acc
		}
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for k, wt := range kernel {
				yy := min(max(y+k-half, 0), h-1)
				acc += wt * tmp[yy*w+x]
			}
			mean := int(math.Round(acc))
			if int(g.Pix[y*g.Stride+x]) <= mean-bias {
				out.Pix[y*w+x] = 255
			}
		}
	}
	return out
}

// gaussianKernel returns normalised weights for an odd size, with the sigma
// OpenCV derives from the kernel size.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*(float64(size-1)*0.5-1) + 0.8
	half := size / 2
	k := make([]float64, size)
	var sum float64
	for i := range k {
		d := float64(i - half)
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// medianFilter replaces each pixel by the median of its size x size
// neighbourhood, replicating border pixels.
func medianFilter(g *image.Gray, size int) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	half := size / 2
	out := image.NewGray(image.Rect(0, 0, w, h))
	win := make([]uint8, 0, size*size)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			win = win[:0]
			for dy := -half; dy <= half; dy++ {
				yy := min(max(y+dy, 0), h-1)
				for dx := -half; dx <= half; dx++ {
					xx := min(max(x+dx, 0), w-1)
					win = append(win, g.Pix[yy*g.Stride+xx])
				}
			}
			sort.Slice(win, func(i, j int) bool { return win[i] < win[j] })
			out.Pix[y*w+x] = win[len(win)/2]
		}
	}
	return out
}

// dilate2x2 takes the maximum over the pixel and its left, upper and
// upper-left neighbours.
func dilate2x2(g *image.Gray) *image.Gray {
	return morph2x2(g, func(a, b uint8) bool { return a > b })
}

// erode2x2 is the minimum over the same neighbourhood.
func erode2x2(g *image.Gray) *image.Gray {
	return morph2x2(g, func(a, b uint8) bool { return a < b })
}

func morph2x2(g *image.Gray, better func(a, b uint8) bool) *image.Gray {
	w, h := g.Bounds().Dx(), g.Bounds().Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := g.Pix[y*g.Stride+x]
			for _, d := range [3][2]int{{-1, 0}, {0, -1}, {-1, -1}} {
				xx, yy := x+d[0], y+d[1]
				if xx < 0 || yy < 0 {
					continue
				}
				if n := g.Pix[yy*g.Stride+xx]; better(n, v) {
					v = n
				}
			}
			out.Pix[y*w+x] = v
		}
	}
	return out
}
