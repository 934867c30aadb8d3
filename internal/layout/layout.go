// Package layout distributes images of arbitrary aspect ratio into a
// bounded rectangular area without overflow.
package layout

import (
	"math"
	"sort"
)

// MaxColumns caps the number of grid columns considered when searching
// for the best placement.
const MaxColumns = 5

// Size is an image's intrinsic dimensions. The units only need to be
// consistent with each other; the container is measured independently.
type Size struct {
	W float64
	H float64
}

// Item is one placed image: its index in the input slice, its scaled
// display size (in container units), and its grid position.
type Item struct {
	Index  int
	W, H   float64
	Row    int
	Col    int
}

// Result describes a complete grid placement.
type Result struct {
	Rows  int
	Cols  int
	Items []Item
	Area  float64 // sum of displayed areas
}

// ByRow groups the placed items into row slices in grid order.
func (r *Result) ByRow() [][]Item {
	rows := make([][]Item, r.Rows)
	for _, item := range r.Items {
		rows[item.Row] = append(rows[item.Row], item)
	}
	return rows
}

// Compute places all images into a grid inside a containerW x containerH
// area and returns the placement with the largest total displayed area,
// or nil when there is nothing to place.
//
// For each candidate column count c in 1..min(n, MaxColumns) the
// container is divided into equal cells. A single uniform scale, the
// median of the per-image maximum non-overflow scales, is applied to
// every image, capped per image so none can exceed its own cell. The
// median keeps most images visually uniform while one extreme aspect
// ratio cannot shrink the whole grid. Candidates are compared by total
// displayed area with a strict greater-than, so ties keep the smallest
// column count.
//
// Image dimensions must be positive; the inspector rejects anything else.
func Compute(images []Size, containerW, containerH float64) *Result {
	n := len(images)
	if n == 0 {
		return nil
	}

	var best *Result
	for cols := 1; cols <= min(n, MaxColumns); cols++ {
		rows := (n + cols - 1) / cols
		cellW := containerW / float64(cols)
		cellH := containerH / float64(rows)

		scales := make([]float64, n)
		for i, img := range images {
			scales[i] = math.Min(cellW/img.W, cellH/img.H)
		}
		sorted := append([]float64(nil), scales...)
		sort.Float64s(sorted)
		median := sorted[n/2]

		items := make([]Item, n)
		var area float64
		for i, img := range images {
			scale := math.Min(median, scales[i])
			w, h := img.W*scale, img.H*scale
			items[i] = Item{Index: i, W: w, H: h, Row: i / cols, Col: i % cols}
			area += w * h
		}

		if best == nil || area > best.Area {
			best = &Result{Rows: rows, Cols: cols, Items: items, Area: area}
		}
	}
	return best
}
