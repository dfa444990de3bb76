package models

import "tablescan/pkg/match"

// Manifest is the cells.json document written next to the cell images.
type Manifest struct {
	Cells   []Cell   `json:"cells"`
	MD5     string   `json:"md5"`
	Header  string   `json:"header,omitempty"`
	Corners [][2]int `json:"corners,omitempty"`
}

// Cell is one grid cell of a processed table.
type Cell struct {
	Row        int           `json:"row"`
	Column     int           `json:"column"`
	Filename   string        `json:"filename"`
	Type       string        `json:"type"`
	BlackRatio float64       `json:"black_ratio"`
	StoreMatch []match.Match `json:"store_match"`
	Text       string        `json:"text,omitempty"`
}

// BestMatch returns the highest-scoring store label of the cell, if any.
func (c Cell) BestMatch() (match.Match, bool) {
	if len(c.StoreMatch) == 0 {
		return match.Match{}, false
	}
	return c.StoreMatch[0], true
}

// Shape returns the number of rows and the widest row of the manifest.
func (m *Manifest) Shape() (rows, columns int) {
	for _, c := range m.Cells {
		rows = max(rows, c.Row+1)
		columns = max(columns, c.Column+1)
	}
	return rows, columns
}

// Grid arranges the cells by row and column; missing positions are nil.
func (m *Manifest) Grid() [][]*Cell {
	rows, cols := m.Shape()
	g := make([][]*Cell, rows)
	for r := range g {
		g[r] = make([]*Cell, cols)
	}
	for i := range m.Cells {
		c := &m.Cells[i]
		if c.Row >= 0 && c.Column >= 0 {
			g[c.Row][c.Column] = c
		}
	}
	return g
}
