package hwpx

import "math"

// HWPX measures lengths in a fixed native unit:
// 1 inch = 7200 units = 25.4 mm.
const (
	UnitsPerInch = 7200
	UnitsPerMM   = UnitsPerInch / 25.4
)

// MMToUnits converts millimeters to native units, rounded.
func MMToUnits(mm float64) int {
	return int(math.Round(mm * UnitsPerMM))
}

// UnitsToMM converts native units to millimeters.
func UnitsToMM(units int) float64 {
	return float64(units) / UnitsPerMM
}

// PixelsToUnits converts a pixel extent at the given resolution to
// native units, rounded. Non-positive resolutions fall back to 96 DPI.
func PixelsToUnits(pixels int, dpi float64) int {
	if dpi <= 0 {
		dpi = 96
	}
	return int(math.Round(float64(pixels) / dpi * UnitsPerInch))
}
