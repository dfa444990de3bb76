package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/sirupsen/logrus"

	"tablescan/pkg/manifest"
)

// Row summarises one processed table.
type Row struct {
	Hash      string
	Cells     int
	Text      int
	Empty     int
	Read      int // cells with OCR text
	TopLabel  string
	TopScore  float64
	HasHeader bool
}

// Summarize reads every manifest under the store root. Directories without a
// readable cells.json are skipped.
func Summarize(st *manifest.Store) ([]Row, error) {
	entries, err := os.ReadDir(st.Root)
	if err != nil {
		return nil, err
	}
	var rows []Row
	for _, e := range entries {
		if !e.IsDir() || !manifest.ValidKey(e.Name()) {
			continue
		}
		m, err := st.Load(e.Name())
		if err != nil {
			st.Log.WithError(err).WithField("hash", e.Name()).Debug("skip directory")
			continue
		}
		r := Row{Hash: m.MD5, Cells: len(m.Cells), HasHeader: m.Header != ""}
		for _, c := range m.Cells {
			if c.Type == "empty" {
				r.Empty++
			} else {
				r.Text++
			}
			if c.Text != "" {
				r.Read++
			}
			if best, ok := c.BestMatch(); ok && best.Score > r.TopScore {
				r.TopLabel, r.TopScore = best.Label, best.Score
			}
		}
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hash < rows[j].Hash })
	return rows, nil
}

// Print writes rows as an aligned table.
func Print(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HASH\tCELLS\tTEXT\tEMPTY\tOCR\tHEADER\tBEST MATCH")
	for _, r := range rows {
		best := "-"
		if r.TopLabel != "" {
			best = fmt.Sprintf("%s (%.2f)", r.TopLabel, r.TopScore)
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%v\t%s\n", r.Hash, r.Cells, r.Text, r.Empty, r.Read, r.HasHeader, best)
	}
	return tw.Flush()
}

// Run summarises root and prints the report to w.
func Run(w io.Writer, root string, log logrus.FieldLogger) error {
	st, err := manifest.NewStore(root, 0, log)
	if err != nil {
		return err
	}
	rows, err := Summarize(st)
	if err != nil {
		return err
	}
	if err := Print(w, rows); err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%d tables\n", len(rows))
	return err
}
