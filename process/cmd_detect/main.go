package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"tablescan/pkg/table"
)

// Reads a photo on stdin and prints the table corners as eight
// tab-separated integers (x1 y1 ... x4 y4, clockwise from top-left).
func main() {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read stdin:", err)
		os.Exit(1)
	}
	img, err := table.Decode(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	q, err := table.DetectBoundary(img, table.DefaultDetectOptions())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(formatCoords(q))
}

func formatCoords(q table.Quad) string {
	parts := make([]string, 0, 8)
	for _, v := range q.Flatten() {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, "\t")
}
