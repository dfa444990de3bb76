package match

import (
	"encoding/json"
	"fmt"
	"image"
	"sort"

	"github.com/sirupsen/logrus"

	"tablescan/pkg/table"
)

// Result is the raw best placement of one template inside a cell.
type Result struct {
	File        string
	Label       string
	Score       float64
	TopLeft     image.Point
	BottomRight image.Point
}

// Match is the best score reached by any template of a label. It encodes as
// the JSON array [label, score, top_y].
type Match struct {
	Label string
	Score float64
	Top   int
}

func (m Match) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{m.Label, m.Score, m.Top})
}

func (m *Match) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 3 {
		return fmt.Errorf("store match: want 3 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &m.Label); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[1], &m.Score); err != nil {
		return err
	}
	return json.Unmarshal(raw[2], &m.Top)
}

// Compare scores img against every template, best first. Templates that
// cannot be placed (larger than the cell in one dimension only) are left out.
func (l *Library) Compare(img image.Image) []Result {
	if len(l.templates) == 0 {
		return nil
	}
	target := newPlane(table.Binarize(img, l.Threshold))
	out := make([]Result, 0, len(l.templates))
	for _, t := range l.templates {
		score, loc, ok := matchTemplate(target, t.plane)
		if !ok {
			continue
		}
		out = append(out, Result{
			File:        t.File,
			Label:       t.Label,
			Score:       score,
			TopLeft:     loc,
			BottomRight: loc.Add(image.Pt(t.Width, t.Height)),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out
}

// Aggregate keeps the highest score per label (the first one seen on ties)
// and orders labels by descending score, then by label.
func Aggregate(results []Result) []Match {
	best := map[string]Match{}
	for _, r := range results {
		if m, ok := best[r.Label]; ok && r.Score <= m.Score {
			continue
		}
		best[r.Label] = Match{Label: r.Label, Score: r.Score, Top: r.TopLeft.Y}
	}
	out := make([]Match, 0, len(best))
	for _, m := range best {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Label < out[j].Label
	})
	return out
}

// Match compares img with the library and aggregates per label. The result
// is never nil.
func (l *Library) Match(img image.Image) []Match {
	return Aggregate(l.Compare(img))
}

// MatchDirectory loads dir as a one-off library and matches img against it.
func MatchDirectory(img image.Image, dir string, threshold uint8) ([]Match, error) {
	lib, err := LoadLibrary(dir, threshold, logrus.StandardLogger())
	if err != nil {
		return nil, err
	}
	return lib.Match(img), nil
}
