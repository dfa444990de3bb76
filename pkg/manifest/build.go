package manifest

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"image"
	"sort"

	"tablescan/models"
	"tablescan/pkg/match"
	"tablescan/pkg/table"
)

// HeaderFile is the name of the optional strip above the table.
const HeaderFile = "header.jpeg"

// ContentHash keys a photo's output directory: the hex MD5 of its bytes.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// CellFilename is the image name of cell (row, column).
func CellFilename(row, column int) string {
	return fmt.Sprintf("%d_%d.jpeg", row, column)
}

// Entry is everything known about one processed cell.
type Entry struct {
	Cell       table.Cell
	Type       table.CellType
	BlackRatio float64
	Matches    []match.Match
	Text       string
}

// Bundle is a built manifest together with the images it references.
type Bundle struct {
	Manifest *models.Manifest
	Images   map[string]image.Image
}

// Build composes the manifest for one table. Cells are ordered row-major
// whatever order the entries arrive in; header may be nil.
func Build(hash string, q table.Quad, entries []Entry, header image.Image) *Bundle {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Cell, sorted[j].Cell
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Column < b.Column
	})

	m := &models.Manifest{MD5: hash, Cells: make([]models.Cell, 0, len(sorted))}
	images := make(map[string]image.Image, len(sorted)+1)
	for _, e := range sorted {
		name := CellFilename(e.Cell.Row, e.Cell.Column)
		matches := e.Matches
		if matches == nil {
			matches = []match.Match{}
		}
		m.Cells = append(m.Cells, models.Cell{
			Row:        e.Cell.Row,
			Column:     e.Cell.Column,
			Filename:   name,
			Type:       string(e.Type),
			BlackRatio: e.BlackRatio,
			StoreMatch: matches,
			Text:       e.Text,
		})
		images[name] = e.Cell.Image
	}
	for _, p := range q {
		m.Corners = append(m.Corners, [2]int{p.X, p.Y})
	}
	if header != nil {
		m.Header = HeaderFile
		images[HeaderFile] = header
	}
	return &Bundle{Manifest: m, Images: images}
}
