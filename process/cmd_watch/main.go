package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"tablescan/pkg/config"
	"tablescan/pkg/logging"
	"tablescan/pkg/manifest"
	"tablescan/pkg/match"
	"tablescan/pkg/ocr"
	"tablescan/pkg/pipeline"
	"tablescan/process/batch"
)

// Scans the upload directory for photos without a manifest, processes them
// with a worker pool and optionally keeps watching for new uploads.
func main() {
	dirFlag := flag.String("dir", "", "directory to scan (default UPLOAD_ROOT)")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default WORKERS or NumCPU)")
	force := flag.Bool("force", false, "Reprocess photos that already have a manifest")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("load configuration")
	}
	log := logging.New(cfg.LogLevel)
	dir := *dirFlag
	if dir == "" {
		dir = cfg.UploadRoot
	}
	if *workers == 0 {
		*workers = cfg.Workers
	}

	lib, err := match.LoadLibrary(cfg.TemplateDir, cfg.Match.Threshold, log)
	if err != nil {
		log.WithError(err).Fatal("load templates")
	}
	store, err := manifest.NewStore(cfg.UploadRoot, cfg.JPEGQuality, log)
	if err != nil {
		log.WithError(err).Fatal("open store")
	}
	var rec pipeline.Recognizer
	if cfg.OCR.Enabled {
		rec = ocr.NewRecognizer(cfg.OCR.Language, cfg.OCR.TessdataPrefix)
	}
	proc := pipeline.New(cfg, lib, rec, store, log)

	runner := &batch.Runner{Dir: dir, Workers: *workers, Proc: proc, Log: log}
	if !*force {
		// uploads are named <md5><ext>, so the stem is the manifest key
		runner.Skip = func(name string) bool {
			return store.Exists(strings.TrimSuffix(name, filepath.Ext(name)))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	files, err := batch.ListImageFiles(dir)
	if err != nil {
		log.WithError(err).Fatal("list photos")
	}
	log.WithFields(logrus.Fields{"files": len(files), "workers": batch.EffectiveWorkers(*workers)}).Info("scanning")
	if err := runner.Run(ctx, files); err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("scan failed")
	}
	st := runner.Stats()
	log.WithFields(logrus.Fields{"processed": st.Processed, "skipped": st.Skipped, "rejected": st.Rejected, "failed": st.Failed}).Info("scan complete")

	if *watch {
		if err := runner.Watch(ctx); err != nil {
			log.WithError(err).Fatal("watch failed")
		}
	}
}
