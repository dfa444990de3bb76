// Package batch processes every photo in a directory with a bounded worker
// pool and can keep watching the directory for new uploads.
package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"tablescan/models"
	"tablescan/pkg/table"
)

// Processor turns one photo on disk into a published manifest.
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*models.Manifest, error)
}

// Stats counts the outcome of a run.
type Stats struct {
	Processed int64
	Skipped   int64
	Rejected  int64
	Failed    int64
}

// Runner feeds photos from Dir to Proc, at most Workers at a time.
type Runner struct {
	Dir      string
	Workers  int
	Proc     Processor
	Skip     func(name string) bool // already processed
	Log      logrus.FieldLogger
	Debounce time.Duration

	stats Stats
}

// EffectiveWorkers defaults a non-positive pool size to the CPU count.
func EffectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

// IsSupportedExt reports whether name is a photo the pipeline can decode.
func IsSupportedExt(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}

// ListImageFiles returns the supported files directly inside dir, sorted.
func ListImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !IsSupportedExt(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

func (r *Runner) log() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// Stats returns a snapshot of the counters.
func (r *Runner) Stats() Stats {
	return Stats{
		Processed: atomic.LoadInt64(&r.stats.Processed),
		Skipped:   atomic.LoadInt64(&r.stats.Skipped),
		Rejected:  atomic.LoadInt64(&r.stats.Rejected),
		Failed:    atomic.LoadInt64(&r.stats.Failed),
	}
}

// Run processes names and waits for all of them. Per-file failures are
// logged and counted; only cancellation stops the run early.
func (r *Runner) Run(ctx context.Context, names []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(EffectiveWorkers(r.Workers))
	for _, name := range names {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.processOne(gctx, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	// gctx is always cancelled once Wait returns
	return ctx.Err()
}

func (r *Runner) processOne(ctx context.Context, name string) {
	log := r.log().WithField("file", name)
	if r.Skip != nil && r.Skip(name) {
		atomic.AddInt64(&r.stats.Skipped, 1)
		log.Debug("already processed")
		return
	}
	start := time.Now()
	m, err := r.Proc.ProcessFile(ctx, filepath.Join(r.Dir, name))
	switch {
	case err == nil:
		atomic.AddInt64(&r.stats.Processed, 1)
		log.WithFields(logrus.Fields{"hash": m.MD5, "cells": len(m.Cells), "took": time.Since(start).Round(time.Millisecond)}).Info("processed")
	case errors.Is(err, table.ErrDetection), errors.Is(err, table.ErrGeometry), errors.Is(err, table.ErrDecode):
		atomic.AddInt64(&r.stats.Rejected, 1)
		log.WithError(err).Warn("rejected")
	default:
		atomic.AddInt64(&r.stats.Failed, 1)
		log.WithError(err).Error("process failed")
	}
}

// Watch processes files created in Dir until ctx is cancelled. A file is
// handed to the pool once it has seen no write for the debounce interval.
func (r *Runner) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(r.Dir); err != nil {
		return err
	}
	debounce := r.Debounce
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	r.log().WithField("dir", r.Dir).Info("watching for new photos")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(EffectiveWorkers(r.Workers) + 1)
	fileCh := make(chan string, 256)
	g.Go(func() error {
		defer close(fileCh)
		pending := map[string]time.Time{}
		ticker := time.NewTicker(debounce / 2)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				name := filepath.Base(ev.Name)
				if IsSupportedExt(name) {
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) >= debounce {
						delete(pending, name)
						select {
						case fileCh <- name:
						case <-gctx.Done():
							return nil
						}
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				r.log().WithError(err).Warn("watch error")
			}
		}
	})
	for name := range fileCh {
		g.Go(func() error {
			r.processOne(gctx, name)
			return nil
		})
	}
	return g.Wait()
}
