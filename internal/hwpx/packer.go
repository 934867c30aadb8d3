// Package hwpx edits HWPX containers directly: it parses the template's
// section markup, replaces its record blocks with synthesized ones and
// repacks the archive without ever driving an office application.
package hwpx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/bcsdlab/hwpx-report/internal/imaging"
	"github.com/bcsdlab/hwpx-report/internal/layout"
	"github.com/bcsdlab/hwpx-report/internal/records"
)

// Well-known internal parts every HWPX template must carry.
const (
	sectionPart  = "Contents/section0.xml"
	manifestPart = "Contents/content.hpf"
)

// FormatError reports an unusable template: not a zip archive, or a
// required internal part is missing. It is fatal; no output is written.
type FormatError struct {
	Path   string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Packer assembles output documents from a template and records.
type Packer struct {
	inspector *imaging.Inspector

	// Progress, when set, is called after each record is processed.
	Progress func(done, total int)
}

// NewPacker creates a Packer using the given inspector for image files.
func NewPacker(inspector *imaging.Inspector) *Packer {
	return &Packer{inspector: inspector}
}

// Pack reads the template archive, replaces its record blocks with one
// synthesized block per input record and returns the complete output
// archive. The template file is never mutated. Only a *FormatError
// aborts; a bad image or an impossible layout degrades its own record
// and processing continues.
func (pk *Packer) Pack(templatePath string, recs []records.Record) ([]byte, error) {
	raw, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("cannot read template: %v", err)}
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		ext := filepath.Ext(templatePath)
		return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf(
			"not an HWPX (zip) archive (%s); the legacy HWP binary format is not supported, re-save the template as .hwpx and retry", ext)}
	}

	// Entry bytes plus original headers, in archive order, so unchanged
	// parts round-trip with their metadata intact.
	var order []string
	contents := make(map[string][]byte, len(zr.File))
	headers := make(map[string]*zip.FileHeader, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("corrupt archive entry %s: %v", f.Name, err)}
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("corrupt archive entry %s: %v", f.Name, err)}
		}
		order = append(order, f.Name)
		contents[f.Name] = buf.Bytes()
		hdr := f.FileHeader
		headers[f.Name] = &hdr
	}

	if _, ok := contents[sectionPart]; !ok {
		return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("missing %s; not a valid HWPX template", sectionPart)}
	}
	if _, ok := contents[manifestPart]; !ok {
		return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("missing %s; not a valid HWPX template", manifestPart)}
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(contents[sectionPart]); err != nil {
		return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("malformed %s: %v", sectionPart, err)}
	}
	sec := doc.Root()
	if sec == nil {
		return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("%s has no root element", sectionPart)}
	}

	// One extraction pass recovers the style constants, strips the
	// template's own record blocks and remembers where replacements go.
	profile, insertIdx, removed := ExtractProfile(sec)
	if removed == 0 {
		log.Printf("WARNING: template has no record block; using built-in style defaults, appending at document end")
	}

	alloc := NewIDAllocator(maxZOrder(sec))
	binIdx := maxBinaryIndex(order) + 1
	var assets []BinaryAsset

	for i, rec := range recs {
		rows, recAssets, nextBin := pk.buildRows(i, rec, profile, binIdx)
		assets = append(assets, recAssets...)
		binIdx = nextBin

		block := BuildRecordBlock(rec.Title, rows, profile, alloc)
		sec.InsertChildAt(insertIdx, block)
		insertIdx++

		if pk.Progress != nil {
			pk.Progress(i+1, len(recs))
		}
	}

	section, err := doc.WriteToBytes()
	if err != nil {
		return nil, &FormatError{Path: templatePath, Reason: fmt.Sprintf("serialize %s: %v", sectionPart, err)}
	}
	contents[sectionPart] = section

	for _, asset := range assets {
		order = append(order, asset.Name())
		contents[asset.Name()] = asset.Data
	}
	if len(assets) > 0 {
		hpf, err := updateManifest(contents[manifestPart], assets)
		if err != nil {
			return nil, &FormatError{Path: templatePath, Reason: err.Error()}
		}
		contents[manifestPart] = hpf
	}

	return writeArchive(order, contents, headers)
}

// PackToFile runs Pack and writes the result to outPath through a
// uniquely named temp file in the same directory, so a failed run never
// leaves a partial document behind.
func (pk *Packer) PackToFile(templatePath, outPath string, recs []records.Record) error {
	out, err := pk.Pack(templatePath, recs)
	if err != nil {
		return err
	}

	dir := filepath.Dir(outPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	tmp := filepath.Join(dir, "."+filepath.Base(outPath)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return fmt.Errorf("stage output: %w", err)
	}
	if err := os.Rename(tmp, outPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("finalize output: %w", err)
	}
	return nil
}

// buildRows inspects one record's images, lays them out inside the image
// cell and returns the placed rows plus the binary assets they
// reference. Failures degrade the record to fewer (or zero) images.
func (pk *Packer) buildRows(recIdx int, rec records.Record, profile *StyleProfile, binIdx int) ([][]PlacedImage, []BinaryAsset, int) {
	if len(rec.Images) == 0 {
		log.Printf("WARNING: record %d (%s): no evidence images", recIdx+1, rec.Title)
		return nil, nil, binIdx
	}

	var imgs []*imaging.Image
	for _, path := range rec.Images {
		img, err := pk.inspector.Inspect(path)
		if err != nil {
			log.Printf("WARNING: record %d (%s): %v, skipped", recIdx+1, rec.Title, err)
			continue
		}
		imgs = append(imgs, img)
	}
	if len(imgs) == 0 {
		log.Printf("WARNING: record %d (%s): no loadable images, leaving image cell empty", recIdx+1, rec.Title)
		return nil, nil, binIdx
	}

	sizes := make([]layout.Size, len(imgs))
	for i, img := range imgs {
		sizes[i] = layout.Size{W: float64(img.Width), H: float64(img.Height)}
	}
	areaW, areaH := profile.ImageAreaMM()
	result := layout.Compute(sizes, areaW, areaH)
	if result == nil {
		log.Printf("WARNING: record %d (%s): layout failed, leaving image cell empty", recIdx+1, rec.Title)
		return nil, nil, binIdx
	}

	var rows [][]PlacedImage
	var assets []BinaryAsset
	for _, rowItems := range result.ByRow() {
		var row []PlacedImage
		for _, item := range rowItems {
			img := imgs[item.Index]
			asset := BinaryAsset{
				ID:   "image" + strconv.Itoa(binIdx),
				Ext:  img.Ext,
				Data: img.Data,
			}
			binIdx++
			assets = append(assets, asset)
			row = append(row, PlacedImage{
				BinaryID: asset.ID,
				Image:    img,
				Width:    MMToUnits(item.W),
				Height:   MMToUnits(item.H),
			})
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, assets, binIdx
}

// writeArchive assembles the output zip, reusing original entry headers
// where the entry existed in the template and default deflate headers
// for new entries.
func writeArchive(order []string, contents map[string][]byte, headers map[string]*zip.FileHeader) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		hdr := headers[name]
		if hdr == nil {
			hdr = &zip.FileHeader{Name: name, Method: zip.Deflate}
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", name, err)
		}
		if _, err := w.Write(contents[name]); err != nil {
			return nil, fmt.Errorf("write archive entry %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// maxZOrder scans the section tree for the highest stacking-order value
// still present after the template's record blocks were stripped.
func maxZOrder(el *etree.Element) int {
	max := 0
	if v := el.SelectAttrValue("zOrder", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > max {
			max = n
		}
	}
	for _, child := range el.ChildElements() {
		if n := maxZOrder(child); n > max {
			max = n
		}
	}
	return max
}

// maxBinaryIndex returns the highest N among BinData/imageN.* entries.
func maxBinaryIndex(names []string) int {
	max := 0
	for _, name := range names {
		rest, ok := strings.CutPrefix(name, "BinData/image")
		if !ok {
			continue
		}
		numStr, _, found := strings.Cut(rest, ".")
		if !found {
			continue
		}
		if n, err := strconv.Atoi(numStr); err == nil && n > max {
			max = n
		}
	}
	return max
}
