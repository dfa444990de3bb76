package main

import (
	"flag"
	"fmt"
	"os"

	"tablescan/pkg/config"
	"tablescan/pkg/logging"
	"tablescan/process/report"
)

func main() {
	root := flag.String("root", "", "output root to report on (default UPLOAD_ROOT)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *root == "" {
		*root = cfg.UploadRoot
	}
	if err := report.Run(os.Stdout, *root, logging.New(cfg.LogLevel)); err != nil {
		fmt.Fprintln(os.Stderr, "report:", err)
		os.Exit(1)
	}
}
