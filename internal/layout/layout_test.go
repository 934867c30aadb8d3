package layout

import (
	"math"
	"sort"
	"testing"
)

// singleColumnArea computes the total displayed area of the c=1 candidate
// by hand, for comparison against the engine's choice.
func singleColumnArea(images []Size, cw, ch float64) float64 {
	n := len(images)
	cellH := ch / float64(n)

	scales := make([]float64, 0, n)
	for _, img := range images {
		scales = append(scales, math.Min(cw/img.W, cellH/img.H))
	}
	sorted := append([]float64(nil), scales...)
	sort.Float64s(sorted)
	median := sorted[n/2]

	var area float64
	for i, img := range images {
		s := math.Min(median, scales[i])
		area += img.W * s * img.H * s
	}
	return area
}

func TestComputeEmpty(t *testing.T) {
	if result := Compute(nil, 100, 50); result != nil {
		t.Errorf("Compute(nil) = %+v; want nil", result)
	}
	if result := Compute([]Size{}, 100, 50); result != nil {
		t.Errorf("Compute([]) = %+v; want nil", result)
	}
}

func TestComputeSingleImage(t *testing.T) {
	result := Compute([]Size{{W: 800, H: 600}}, 100, 50)
	if result == nil {
		t.Fatal("Compute returned nil for a single image")
	}
	if result.Rows != 1 || result.Cols != 1 {
		t.Errorf("grid = %dx%d; want 1x1", result.Rows, result.Cols)
	}
	item := result.Items[0]
	// 800x600 into 100x50: height-bound, scale 50/600.
	wantW, wantH := 800*50.0/600, 50.0
	if math.Abs(item.W-wantW) > 1e-9 || math.Abs(item.H-wantH) > 1e-9 {
		t.Errorf("display size = %.3fx%.3f; want %.3fx%.3f", item.W, item.H, wantW, wantH)
	}
}

func TestComputePlacesAllWithoutOverflow(t *testing.T) {
	tests := []struct {
		name   string
		images []Size
		cw, ch float64
	}{
		{"two mixed orientations", []Size{{800, 600}, {600, 800}}, 180, 90},
		{"five equal squares", []Size{{1000, 1000}, {1000, 1000}, {1000, 1000}, {1000, 1000}, {1000, 1000}}, 183, 89},
		{"extreme panorama among squares", []Size{{4000, 500}, {900, 900}, {900, 900}}, 160, 90},
		{"many tall scans", []Size{{600, 1800}, {600, 1700}, {620, 1800}, {580, 1750}, {600, 1800}, {610, 1790}, {590, 1810}}, 183, 89},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := Compute(tc.images, tc.cw, tc.ch)
			if result == nil {
				t.Fatal("Compute returned nil")
			}
			if len(result.Items) != len(tc.images) {
				t.Fatalf("placed %d of %d images", len(result.Items), len(tc.images))
			}

			cellW := tc.cw / float64(result.Cols)
			cellH := tc.ch / float64(result.Rows)
			seen := make(map[int]bool)
			for _, item := range result.Items {
				if seen[item.Index] {
					t.Errorf("image %d placed twice", item.Index)
				}
				seen[item.Index] = true
				if item.W > cellW+1e-9 || item.H > cellH+1e-9 {
					t.Errorf("image %d display %.3fx%.3f exceeds cell %.3fx%.3f",
						item.Index, item.W, item.H, cellW, cellH)
				}
				if item.Row < 0 || item.Row >= result.Rows || item.Col < 0 || item.Col >= result.Cols {
					t.Errorf("image %d placed at (%d,%d) outside %dx%d grid",
						item.Index, item.Row, item.Col, result.Rows, result.Cols)
				}
			}

			if c1 := singleColumnArea(tc.images, tc.cw, tc.ch); result.Area < c1-1e-9 {
				t.Errorf("total area %.3f is worse than single-column candidate %.3f", result.Area, c1)
			}
		})
	}
}

func TestComputePrefersWiderGridForLandscapePair(t *testing.T) {
	// Two images in a wide flat container: side by side beats stacked.
	result := Compute([]Size{{800, 600}, {600, 800}}, 180, 60)
	if result == nil {
		t.Fatal("Compute returned nil")
	}
	if result.Cols != 2 || result.Rows != 1 {
		t.Errorf("grid = %dx%d; want 1x2", result.Rows, result.Cols)
	}
}

func TestComputeRowMajorOrder(t *testing.T) {
	images := []Size{{100, 100}, {100, 100}, {100, 100}, {100, 100}, {100, 100}}
	result := Compute(images, 100, 100)
	if result == nil {
		t.Fatal("Compute returned nil")
	}
	for i, item := range result.Items {
		if item.Index != i {
			t.Errorf("item %d has index %d; placement must follow input order", i, item.Index)
		}
		if item.Row != i/result.Cols || item.Col != i%result.Cols {
			t.Errorf("item %d at (%d,%d); want (%d,%d)", i, item.Row, item.Col, i/result.Cols, i%result.Cols)
		}
	}

	byRow := result.ByRow()
	if len(byRow) != result.Rows {
		t.Fatalf("ByRow returned %d rows; want %d", len(byRow), result.Rows)
	}
	count := 0
	for _, row := range byRow {
		count += len(row)
	}
	if count != len(images) {
		t.Errorf("ByRow holds %d items; want %d", count, len(images))
	}
}

func TestComputeMedianCapsExtremeImage(t *testing.T) {
	// One extreme panorama must not shrink the squares: the squares keep
	// the median scale while the panorama is capped by its own cell.
	images := []Size{{10000, 100}, {500, 500}, {500, 500}}
	result := Compute(images, 150, 150)
	if result == nil {
		t.Fatal("Compute returned nil")
	}
	var panorama, square Item
	for _, item := range result.Items {
		if item.Index == 0 {
			panorama = item
		} else {
			square = item
		}
	}
	panoramaScale := panorama.W / 10000
	squareScale := square.W / 500
	if panoramaScale >= squareScale {
		t.Errorf("panorama scale %.5f not capped below square scale %.5f", panoramaScale, squareScale)
	}
}
