package match

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"tablescan/pkg/table"
)

// Template is one binarized reference stamp.
type Template struct {
	File   string
	Label  string
	Width  int
	Height int
	plane  *plane
}

// Library holds every template of a directory grouped by label. It is
// immutable after loading and safe for concurrent use.
type Library struct {
	Dir       string
	Threshold uint8
	templates []*Template
	byLabel   map[string][]*Template
}

// LabelOf returns the store label encoded in a template filename: the token
// after the last underscore of the stem ("03_acme.png" -> "acme").
func LabelOf(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.LastIndex(stem, "_"); i >= 0 {
		return stem[i+1:]
	}
	return stem
}

func isTemplateFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// LoadLibrary reads and binarizes every template in dir, in filename order.
// An empty dir argument yields an empty library. Unreadable images are
// logged and skipped.
func LoadLibrary(dir string, threshold uint8, log logrus.FieldLogger) (*Library, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	lib := &Library{Dir: dir, Threshold: threshold, byLabel: map[string][]*Template{}}
	if dir == "" {
		return lib, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read template dir: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		img, err := imaging.Open(filepath.Join(dir, e.Name()), imaging.AutoOrientation(true))
		if err != nil {
			log.WithError(err).WithField("file", e.Name()).Warn("skip unreadable template")
			continue
		}
		lib.add(e.Name(), img)
	}
	log.WithFields(logrus.Fields{"dir": dir, "templates": len(lib.templates), "labels": len(lib.byLabel)}).Info("template library loaded")
	return lib, nil
}

func (l *Library) add(name string, img image.Image) {
	p := newPlane(table.Binarize(img, l.Threshold))
	t := &Template{File: name, Label: LabelOf(name), Width: p.w, Height: p.h, plane: p}
	l.templates = append(l.templates, t)
	l.byLabel[t.Label] = append(l.byLabel[t.Label], t)
}

// Len is the number of templates.
func (l *Library) Len() int { return len(l.templates) }

// Labels returns the distinct labels, sorted.
func (l *Library) Labels() []string {
	out := make([]string, 0, len(l.byLabel))
	for k := range l.byLabel {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Templates returns the templates registered under label.
func (l *Library) Templates(label string) []*Template {
	return l.byLabel[label]
}
