// Package imaging loads record images, normalizes EXIF orientation and
// reports the intrinsic dimensions and resolution the document builder
// needs for physical sizing.
package imaging

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
)

// DefaultDPI is assumed per axis when an image carries no resolution
// metadata.
const DefaultDPI = 96

// DefaultMaxPixels is the decoded-pixel-count ceiling used when no
// explicit limit is configured. Anything larger is treated as a
// decompression bomb and rejected.
const DefaultMaxPixels = 128_000_000

// Image is one inspected record image. Width and Height are
// orientation-corrected pixel dimensions; Data holds the encoded bytes
// to embed in the container (re-encoded only when a rotation had to be
// baked in).
type Image struct {
	Path   string
	Ext    string // normalized extension without dot, e.g. "png"
	Width  int
	Height int
	DPIX   float64
	DPIY   float64
	Data   []byte
}

// LoadError reports a single unusable image. It is recoverable: the
// caller drops the image and continues with the rest of the record.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load image %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Inspector loads and measures image files.
type Inspector struct {
	maxPixels int64
}

// NewInspector creates an Inspector. maxPixels bounds the decoded pixel
// count; zero or negative selects DefaultMaxPixels.
func NewInspector(maxPixels int64) *Inspector {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	return &Inspector{maxPixels: maxPixels}
}

// Inspect loads one image file. Any failure (unreadable file,
// unrecognized format, oversized decode) returns a *LoadError.
func (ins *Inspector) Inspect(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("unrecognized image format: %w", err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, &LoadError{Path: path, Err: fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	if int64(cfg.Width)*int64(cfg.Height) > ins.maxPixels {
		return nil, &LoadError{Path: path, Err: fmt.Errorf(
			"image is %dx%d (%d pixels), over the %d pixel safety limit",
			cfg.Width, cfg.Height, int64(cfg.Width)*int64(cfg.Height), ins.maxPixels)}
	}

	img := &Image{
		Path:   path,
		Ext:    normalizeExt(path, format),
		Width:  cfg.Width,
		Height: cfg.Height,
		Data:   data,
	}
	img.DPIX, img.DPIY = resolution(data, format)

	// Bake EXIF rotation into the pixels so declared dimensions match
	// visual orientation. Only JPEG carries the tag in practice.
	if format == "jpeg" {
		if orientation := exifOrientation(data); orientation > 1 {
			if err := img.bakeOrientation(orientation); err != nil {
				return nil, &LoadError{Path: path, Err: err}
			}
		}
	}
	return img, nil
}

// bakeOrientation decodes the image, applies the orientation transform
// and re-encodes, replacing Data and the declared dimensions.
func (img *Image) bakeOrientation(orientation int) error {
	decoded, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return fmt.Errorf("decode for orientation fix: %w", err)
	}

	oriented := applyOrientation(decoded, orientation)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, oriented, &jpeg.Options{Quality: 95}); err != nil {
		return fmt.Errorf("re-encode after orientation fix: %w", err)
	}

	bounds := oriented.Bounds()
	img.Width = bounds.Dx()
	img.Height = bounds.Dy()
	if orientation >= 5 {
		img.DPIX, img.DPIY = img.DPIY, img.DPIX
	}
	img.Data = buf.Bytes()
	return nil
}

// applyOrientation transforms pixels according to an EXIF orientation
// value (1-8, 1 = normal). Values outside the range return the image
// unchanged.
func applyOrientation(img image.Image, orientation int) image.Image {
	if orientation <= 1 || orientation > 8 {
		return img
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	outW, outH := w, h
	if orientation >= 5 {
		outW, outH = h, w
	}
	out := image.NewRGBA(image.Rect(0, 0, outW, outH))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var dx, dy int
			switch orientation {
			case 2: // mirror horizontal
				dx, dy = w-1-x, y
			case 3: // rotate 180
				dx, dy = w-1-x, h-1-y
			case 4: // mirror vertical
				dx, dy = x, h-1-y
			case 5: // mirror horizontal + rotate 270 CW
				dx, dy = y, x
			case 6: // rotate 90 CW
				dx, dy = h-1-y, x
			case 7: // mirror horizontal + rotate 90 CW
				dx, dy = h-1-y, w-1-x
			case 8: // rotate 270 CW
				dx, dy = y, w-1-x
			}
			out.Set(dx, dy, img.At(x+bounds.Min.X, y+bounds.Min.Y))
		}
	}
	return out
}

// exifOrientation returns the EXIF orientation tag, or 1 when the data
// carries none.
func exifOrientation(data []byte) int {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

// resolution extracts per-axis DPI from format metadata, falling back to
// DefaultDPI per axis.
func resolution(data []byte, format string) (float64, float64) {
	switch format {
	case "jpeg":
		if x, y, ok := jpegResolution(data); ok {
			return x, y
		}
	case "png":
		if x, y, ok := pngResolution(data); ok {
			return x, y
		}
	}
	return DefaultDPI, DefaultDPI
}

// jpegResolution reads XResolution/YResolution from EXIF.
func jpegResolution(data []byte) (float64, float64, bool) {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, 0, false
	}
	x := ratTag(meta, exif.XResolution)
	y := ratTag(meta, exif.YResolution)
	if x <= 0 || y <= 0 {
		return 0, 0, false
	}
	return x, y, true
}

func ratTag(meta *exif.Exif, name exif.FieldName) float64 {
	tag, err := meta.Get(name)
	if err != nil {
		return 0
	}
	numer, denom, err := tag.Rat2(0)
	if err != nil || denom == 0 {
		return 0
	}
	return float64(numer) / float64(denom)
}

// pngResolution walks PNG chunks for a pHYs entry with a metric unit.
// Chunk layout: length(4) + type(4) + data + crc(4), first chunk at
// offset 8.
func pngResolution(data []byte) (float64, float64, bool) {
	const metersPerInch = 0.0254

	offset := 8
	for offset+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		chunkType := string(data[offset+4 : offset+8])
		body := offset + 8
		if body+length > len(data) {
			return 0, 0, false
		}
		switch chunkType {
		case "pHYs":
			if length < 9 || data[body+8] != 1 { // unit 1 = pixels per meter
				return 0, 0, false
			}
			ppmX := binary.BigEndian.Uint32(data[body : body+4])
			ppmY := binary.BigEndian.Uint32(data[body+4 : body+8])
			if ppmX == 0 || ppmY == 0 {
				return 0, 0, false
			}
			return float64(ppmX) * metersPerInch, float64(ppmY) * metersPerInch, true
		case "IDAT", "IEND":
			// pHYs must precede image data.
			return 0, 0, false
		}
		offset = body + length + 4
	}
	return 0, 0, false
}

// normalizeExt picks the container extension for an image: the file's
// own extension when present, the detected format otherwise.
func normalizeExt(path, format string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		ext = format
	}
	if ext == "jpeg" {
		ext = "jpg"
	}
	return ext
}
