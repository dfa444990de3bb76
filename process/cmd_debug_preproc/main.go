package main

import (
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"tablescan/pkg/ocr"
	"tablescan/pkg/table"
)

// Dumps the intermediate images of one photo: edge map, detected boundary,
// rectified table, and the OCR input of every cell.
func main() {
	in := flag.String("in", "", "photo to inspect")
	out := flag.String("out", "/tmp/tablescan-debug", "directory for the dumped images")
	rows := flag.Int("rows", 7, "grid rows")
	cols := flag.Int("cols", 5, "grid columns")
	flag.Parse()
	if *in == "" {
		log.Fatal("-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	img, err := table.Decode(data)
	if err != nil {
		log.Fatalf("decode: %v", err)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("mkdir: %v", err)
	}
	opts := table.DefaultDetectOptions()
	mustSave(table.EdgeMap(img, opts), filepath.Join(*out, "edges.png"))
	q, err := table.DetectBoundary(img, opts)
	if err != nil {
		log.Fatalf("detect: %v", err)
	}
	fmt.Printf("corners=%v\n", q.Flatten())
	mustSave(table.DrawQuad(img, q, table.BoundaryColor, 3), filepath.Join(*out, "boundary.jpeg"))

	rect, err := table.Rectify(img, q)
	if err != nil {
		log.Fatalf("rectify: %v", err)
	}
	mustSave(rect.Image, filepath.Join(*out, "rectified.jpeg"))
	cells, err := table.Partition(rect, table.GridSpec{Rows: *rows, Columns: *cols})
	if err != nil {
		log.Fatalf("partition: %v", err)
	}
	for _, c := range cells {
		typ, ratio, _ := table.Classify(c.Image, table.DefaultClassifyOptions())
		fmt.Printf("%d_%d type=%s black_ratio=%.4f\n", c.Row, c.Column, typ, ratio)
		mustSave(ocr.Preprocess(c.Image), filepath.Join(*out, fmt.Sprintf("%d_%d.ocr.png", c.Row, c.Column)))
	}
}

func mustSave(img image.Image, path string) {
	if err := imaging.Save(img, path); err != nil {
		log.Fatalf("save %s: %v", path, err)
	}
}
