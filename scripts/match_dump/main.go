package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"tablescan/pkg/match"
)

// Prints the score of every template against one cell image.
func main() {
	path := flag.String("path", "", "cell image path")
	dir := flag.String("templates", "templates", "template directory")
	threshold := flag.Uint("threshold", 127, "binarization threshold")
	flag.Parse()
	if *path == "" {
		log.Fatal("--path is required")
	}
	img, err := imaging.Open(*path)
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	lg := logrus.New()
	lg.SetOutput(os.Stderr)
	lib, err := match.LoadLibrary(*dir, uint8(*threshold), lg)
	if err != nil {
		log.Fatalf("templates: %v", err)
	}
	results := lib.Compare(img)
	for _, r := range results {
		fmt.Printf("%.4f\t%s\t%s\t%v-%v\n", r.Score, r.Label, r.File, r.TopLeft, r.BottomRight)
	}
	fmt.Println("aggregate:")
	for _, m := range match.Aggregate(results) {
		fmt.Printf("  %s\t%.4f\ttop=%d\n", m.Label, m.Score, m.Top)
	}
}
