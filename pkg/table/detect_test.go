package table

import (
	"errors"
	"image"
	"math"
	"testing"
)

func TestDetectSolidRectangle(t *testing.T) {
	img := fillRect(canvas(400, 300), image.Rect(100, 80, 250, 200), black)
	q, err := DetectBoundary(img, DefaultDetectOptions())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	want := 150.0 * 120.0
	if got := quadArea(q); math.Abs(got-want)/want > 0.1 {
		t.Fatalf("area %.0f too far from %.0f (quad %v)", got, want, q)
	}
	if !near(q[0], image.Pt(100, 80), 4) || !near(q[2], image.Pt(249, 199), 4) {
		t.Fatalf("corners not clockwise from top-left: %v", q)
	}
}

func TestDetectRotatedSquare(t *testing.T) {
	img := canvas(600, 600)
	const side = 200.0
	theta := 30 * math.Pi / 180
	var pts []vec
	for _, c := range []vec{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}} {
		x, y := c.x*side/2, c.y*side/2
		pts = append(pts, vec{300 + x*math.Cos(theta) - y*math.Sin(theta), 300 + x*math.Sin(theta) + y*math.Cos(theta)})
	}
	fillPolygon(img, pts, black)

	q, err := DetectBoundary(img, DefaultDetectOptions())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	want := side * side
	if got := quadArea(q); math.Abs(got-want)/want > 0.1 {
		t.Fatalf("area %.0f too far from %.0f (quad %v)", got, want, q)
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("detected quad invalid: %v", err)
	}
}

func TestDetectPicksLargestFrame(t *testing.T) {
	img := canvas(800, 600)
	img = frame(img, image.Rect(40, 40, 760, 560), 4)
	img = fillRect(img, image.Rect(100, 100, 200, 200), black)
	q, err := DetectBoundary(img, DefaultDetectOptions())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	if !near(q[0], image.Pt(40, 40), 3) || !near(q[2], image.Pt(759, 559), 3) {
		t.Fatalf("expected outer frame, got %v", q)
	}
}

func TestDetectAllWhite(t *testing.T) {
	_, err := DetectBoundary(canvas(500, 500), DefaultDetectOptions())
	if !errors.Is(err, ErrDetection) {
		t.Fatalf("expected ErrDetection, got %v", err)
	}
}

func TestDetectRejectsSmallAndSliver(t *testing.T) {
	small := fillRect(canvas(300, 300), image.Rect(100, 100, 150, 150), black)
	if _, err := DetectBoundary(small, DefaultDetectOptions()); !errors.Is(err, ErrDetection) {
		t.Fatalf("small square: expected ErrDetection, got %v", err)
	}
	sliver := fillRect(canvas(800, 200), image.Rect(100, 90, 700, 110), black)
	if _, err := DetectBoundary(sliver, DefaultDetectOptions()); !errors.Is(err, ErrDetection) {
		t.Fatalf("sliver: expected ErrDetection, got %v", err)
	}
}

func TestCannyThresholdsClamp(t *testing.T) {
	low, high := cannyThresholds(255, 0.66, 1.33)
	if low != 168 || high != 255 {
		t.Fatalf("got %d/%d", low, high)
	}
	low, high = cannyThresholds(0, 0.66, 1.33)
	if low != 0 || high != 0 {
		t.Fatalf("got %d/%d", low, high)
	}
}

func TestMedianIntensity(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 4, 1))
	copy(g.Pix, []uint8{10, 20, 30, 200})
	if m := medianIntensity(g); m != 25 {
		t.Fatalf("median %v", m)
	}
}

func TestEdgeMapThinEdges(t *testing.T) {
	img := fillRect(canvas(100, 100), image.Rect(0, 0, 50, 100), black)
	opts := DefaultDetectOptions()
	opts.Dilate = false
	edges := EdgeMap(img, opts)
	row := 50 * edges.Stride
	count := 0
	for x := 0; x < 100; x++ {
		if edges.Pix[row+x] != 0 {
			count++
			if x < 48 || x > 51 {
				t.Fatalf("edge at unexpected x=%d", x)
			}
		}
	}
	if count != 1 {
		t.Fatalf("expected a single edge pixel per row, got %d", count)
	}
}
