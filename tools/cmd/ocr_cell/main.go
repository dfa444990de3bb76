package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/disintegration/imaging"

	"tablescan/pkg/ocr"
)

func main() {
	lang := flag.String("lang", "jpn", "tesseract language")
	prefix := flag.String("tessdata", os.Getenv("TESSDATA_PREFIX"), "tessdata directory")
	dump := flag.String("dump", "", "also save the preprocessed image here")
	flag.Parse()
	p := "uploads/0_0.jpeg"
	if flag.NArg() > 0 {
		p = flag.Arg(0)
	}
	img, err := imaging.Open(p)
	if err != nil {
		log.Fatalf("open %s: %v", p, err)
	}
	if *dump != "" {
		if err := imaging.Save(ocr.Preprocess(img), *dump); err != nil {
			log.Fatalf("save %s: %v", *dump, err)
		}
	}
	text, err := ocr.NewRecognizer(*lang, *prefix).Recognize(img)
	fmt.Printf("Recognize err=%v\n", err)
	fmt.Printf("text=%q\n", text)
}
