package ocr

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/disintegration/imaging"
)

func grayFrom(w, h int, set func(x, y int) uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.Pix[y*w+x] = set(x, y)
		}
	}
	return g
}

func TestAdaptiveThresholdFlat(t *testing.T) {
	g := grayFrom(20, 20, func(x, y int) uint8 { return 200 })
	for _, v := range adaptiveThreshold(g, 11, 2).Pix {
		if v != 0 {
			t.Fatalf("flat image produced ink")
		}
	}
}

func TestAdaptiveThresholdMarksDarkStroke(t *testing.T) {
	g := grayFrom(30, 30, func(x, y int) uint8 {
		if x >= 14 && x <= 15 {
			return 20
		}
		return 230
	})
	out := adaptiveThreshold(g, 11, 2)
	if out.Pix[10*30+14] != 255 || out.Pix[10*30+5] != 0 {
		t.Fatalf("stroke %d background %d", out.Pix[10*30+14], out.Pix[10*30+5])
	}
}

func TestGaussianKernel(t *testing.T) {
	k := gaussianKernel(11)
	var sum float64
	for i, v := range k {
		sum += v
		if v != k[len(k)-1-i] {
			t.Fatalf("kernel not symmetric: %v", k)
		}
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Fatalf("sum %v", sum)
	}
	// size 11 gives sigma 2
	if r := k[5] / k[6]; math.Abs(r-math.Exp(1.0/8)) > 1e-9 {
		t.Fatalf("ratio %v", r)
	}
}

func TestAdaptiveThresholdWeightsNearPixels(t *testing.T) {
	// dark columns at the window edge barely move a Gaussian mean; a plain
	// box mean would drop below the centre pixel and leave it blank
	g := grayFrom(30, 11, func(x, y int) uint8 {
		switch x {
		case 10, 20:
			return 0
		case 15:
			return 170
		}
		return 200
	})
	out := adaptiveThreshold(g, 11, 2)
	if out.Pix[5*30+15] != 255 {
		t.Fatalf("centre pixel not inked")
	}
	if out.Pix[5*30+2] != 0 {
		t.Fatalf("background inked")
	}
}

func TestMedianFilterRemovesSpeck(t *testing.T) {
	g := grayFrom(9, 9, func(x, y int) uint8 {
		if x == 4 && y == 4 {
			return 255
		}
		return 0
	})
	if v := medianFilter(g, 5).Pix[4*9+4]; v != 0 {
		t.Fatalf("speck survived: %d", v)
	}
}

func TestClosingBridgesGap(t *testing.T) {
	// two horizontal strokes separated by a one-pixel gap at x=5
	g := grayFrom(11, 5, func(x, y int) uint8 {
		if y >= 1 && y <= 3 && x != 5 {
			return 255
		}
		return 0
	})
	out := erode2x2(dilate2x2(g))
	if out.Pix[2*11+5] != 255 {
		t.Fatalf("gap not closed")
	}
	if out.Pix[0*11+3] != 0 {
		t.Fatalf("closing grew the stroke")
	}
}

func TestPreprocessDarkTextOnWhite(t *testing.T) {
	img := imaging.New(60, 40, color.NRGBA{255, 255, 255, 255})
	img = imaging.Paste(img, imaging.New(20, 12, color.NRGBA{0, 0, 0, 255}), image.Pt(20, 14))
	out := Preprocess(img)
	if out.Bounds().Dx() != 60 || out.Bounds().Dy() != 40 {
		t.Fatalf("bounds %v", out.Bounds())
	}
	if v := out.Pix[2*60+2]; v != 255 {
		t.Fatalf("background %d", v)
	}
	// solid interiors are flat to the adaptive threshold; only the outline inks
	if v := out.Pix[20*60+20]; v != 0 {
		t.Fatalf("glyph edge %d", v)
	}
}

func TestNormalizeOCRText(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  hello\n\tworld ", "hello world"},
		{"品 名\n数 量", "品名数量"},
		{"ABC 商 店", "ABC 商店"},
	}
	for _, c := range cases {
		if got := normalizeOCRText(c.in); got != c.want {
			t.Errorf("%q: got %q want %q", c.in, got, c.want)
		}
	}
}
