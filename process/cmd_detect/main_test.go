package main

import (
	"testing"

	"tablescan/pkg/table"
)

func TestFormatCoords(t *testing.T) {
	got := formatCoords(table.Quad{{1, 2}, {30, 2}, {30, 40}, {1, 40}})
	if got != "1\t2\t30\t2\t30\t40\t1\t40" {
		t.Fatalf("got %q", got)
	}
}
