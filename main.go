package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tablescan/pkg/config"
	"tablescan/pkg/logging"
	"tablescan/pkg/manifest"
	"tablescan/pkg/match"
	"tablescan/pkg/ocr"
	"tablescan/pkg/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	log := logging.New(cfg.LogLevel)

	proc, err := newProcessor(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("initialise pipeline")
	}

	// `./tablescan process photo.jpg ...` runs the pipeline on local files,
	// prints each manifest and exits.
	if len(os.Args) > 1 && os.Args[1] == "process" {
		os.Exit(processFiles(proc, os.Args[2:], log))
	}

	r := gin.Default()
	if err := setupRoutes(r, newServer(cfg, proc, log)); err != nil {
		log.WithError(err).Fatal("setup routes")
	}
	log.WithField("addr", cfg.ListenAddr).Info("listening")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

// newProcessor loads the template library and output store and wires the
// optional recognizer.
func newProcessor(cfg *config.Config, log *logrus.Logger) (*pipeline.Processor, error) {
	lib, err := match.LoadLibrary(cfg.TemplateDir, cfg.Match.Threshold, log)
	if err != nil {
		return nil, err
	}
	store, err := manifest.NewStore(cfg.UploadRoot, cfg.JPEGQuality, log)
	if err != nil {
		return nil, err
	}
	var rec pipeline.Recognizer
	if cfg.OCR.Enabled {
		rec = ocr.NewRecognizer(cfg.OCR.Language, cfg.OCR.TessdataPrefix)
		log.WithField("language", cfg.OCR.Language).Info("cell OCR enabled")
	}
	return pipeline.New(cfg, lib, rec, store, log), nil
}

func processFiles(proc *pipeline.Processor, paths []string, log *logrus.Logger) int {
	if len(paths) == 0 {
		log.Error("usage: tablescan process <image> [image...]")
		return 2
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	status := 0
	for _, path := range paths {
		m, err := proc.ProcessFile(context.Background(), path)
		if err != nil {
			log.WithError(err).WithField("file", path).Error("process failed")
			status = 1
			continue
		}
		_ = enc.Encode(m)
	}
	return status
}
