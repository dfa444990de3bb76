// Package pipeline runs a photographed table through detection,
// rectification, partitioning, classification and store matching, and
// publishes the resulting manifest.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/sirupsen/logrus"

	"tablescan/models"
	"tablescan/pkg/config"
	"tablescan/pkg/manifest"
	"tablescan/pkg/match"
	"tablescan/pkg/table"
)

// Recognizer reads the text of one cell. pkg/ocr provides the Tesseract one.
type Recognizer interface {
	Recognize(img image.Image) (string, error)
}

// Processor holds the read-only collaborators shared by all requests.
type Processor struct {
	cfg   *config.Config
	lib   *match.Library
	ocr   Recognizer
	store *manifest.Store
	log   logrus.FieldLogger
}

// New wires a processor. lib and rec may be nil: no templates, no OCR.
func New(cfg *config.Config, lib *match.Library, rec Recognizer, store *manifest.Store, log logrus.FieldLogger) *Processor {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if lib == nil {
		lib, _ = match.LoadLibrary("", cfg.Match.Threshold, log)
	}
	return &Processor{cfg: cfg, lib: lib, ocr: rec, store: store, log: log}
}

// Config returns the settings the processor was built with.
func (p *Processor) Config() *config.Config { return p.cfg }

// Store returns the manifest store.
func (p *Processor) Store() *manifest.Store { return p.store }

// DetectBoundary decodes an uploaded photo and locates the table in it.
func (p *Processor) DetectBoundary(data []byte) (table.Quad, error) {
	img, err := table.Decode(data)
	if err != nil {
		return table.Quad{}, err
	}
	return table.DetectBoundary(img, p.cfg.Detect)
}

// RectifyAndPartition cuts the table bounded by q into cells following spec
// and publishes the manifest under the photo's MD5. q may come in any corner
// order.
func (p *Processor) RectifyAndPartition(ctx context.Context, data []byte, q table.Quad, spec table.GridSpec) (*models.Manifest, error) {
	img, err := table.Decode(data)
	if err != nil {
		return nil, err
	}
	return p.publish(ctx, img, manifest.ContentHash(data), q.Ordered(), spec)
}

// MatchTemplates scores a cell image against the loaded template library.
func (p *Processor) MatchTemplates(cell image.Image) []match.Match {
	return p.lib.Match(cell)
}

// Process detects the table and partitions it with the configured grid.
func (p *Processor) Process(ctx context.Context, data []byte) (*models.Manifest, error) {
	return p.ProcessWithGrid(ctx, data, p.cfg.Grid)
}

// ProcessWithGrid is Process with an explicit grid.
func (p *Processor) ProcessWithGrid(ctx context.Context, data []byte, spec table.GridSpec) (*models.Manifest, error) {
	img, err := table.Decode(data)
	if err != nil {
		return nil, err
	}
	q, err := table.DetectBoundary(img, p.cfg.Detect)
	if err != nil {
		return nil, err
	}
	return p.publish(ctx, img, manifest.ContentHash(data), q, spec)
}

// ProcessFile runs Process on a photo stored on disk.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, data)
}

func (p *Processor) publish(ctx context.Context, img image.Image, hash string, q table.Quad, spec table.GridSpec) (*models.Manifest, error) {
	log := p.log.WithField("hash", hash)
	bundle, err := p.build(ctx, img, hash, q, spec)
	if err != nil {
		log.WithError(err).Warn("table rejected")
		return nil, err
	}
	if p.store == nil {
		return bundle.Manifest, nil
	}
	if err := p.store.Write(bundle); err != nil {
		return nil, fmt.Errorf("store manifest: %w", err)
	}
	return bundle.Manifest, nil
}

func (p *Processor) build(ctx context.Context, img image.Image, hash string, q table.Quad, spec table.GridSpec) (*manifest.Bundle, error) {
	rect, err := table.Rectify(img, q)
	if err != nil {
		return nil, err
	}
	cells, err := table.Partition(rect, spec)
	if err != nil {
		return nil, err
	}

	entries := make([]manifest.Entry, 0, len(cells))
	for _, c := range cells {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := p.examine(c)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	var header image.Image
	if p.cfg.Header {
		if strip, ok := table.HeaderStrip(img, q); ok {
			header = strip
		}
	}
	p.log.WithFields(logrus.Fields{
		"hash":    hash,
		"cells":   len(entries),
		"size":    fmt.Sprintf("%dx%d", rect.Width, rect.Height),
		"corners": q.Flatten(),
	}).Debug("table partitioned")
	return manifest.Build(hash, q, entries, header), nil
}

// examine classifies one cell; text cells are also matched and, when a
// recognizer is configured, read. Recognition failures only drop the text.
func (p *Processor) examine(c table.Cell) (manifest.Entry, error) {
	typ, ratio, err := table.Classify(c.Image, p.cfg.Classify)
	if err != nil {
		return manifest.Entry{}, fmt.Errorf("cell %d_%d: %w", c.Row, c.Column, err)
	}
	e := manifest.Entry{Cell: c, Type: typ, BlackRatio: ratio}
	if typ == table.CellEmpty {
		return e, nil
	}
	e.Matches = p.MatchTemplates(c.Image)
	if p.ocr != nil {
		text, err := p.ocr.Recognize(c.Image)
		if err != nil {
			p.log.WithError(err).WithFields(logrus.Fields{"row": c.Row, "column": c.Column}).Warn("cell OCR failed")
		}
		e.Text = text
	}
	return e, nil
}
