package hwpx

import (
	"math"
	"sort"
	"strconv"

	"github.com/beevik/etree"

	"github.com/bcsdlab/hwpx-report/internal/imaging"
)

// idSeed is where element and instance IDs start for every run. The
// range is far above anything a template authored by hand contains.
const idSeed = 100_000_000

// IDAllocator hands out element IDs and stacking-order (zOrder) values
// for one pack run. A fresh allocator per run keeps repeated runs over
// the same input byte-identical.
type IDAllocator struct {
	nextID int
	nextZ  int
}

// NewIDAllocator seeds the element-ID counter and starts z-orders one
// past the template's current maximum.
func NewIDAllocator(maxZOrder int) *IDAllocator {
	return &IDAllocator{nextID: idSeed, nextZ: maxZOrder + 1}
}

// NextID returns a fresh element identifier.
func (a *IDAllocator) NextID() int {
	id := a.nextID
	a.nextID++
	return id
}

// NextZ returns the next stacking-order value.
func (a *IDAllocator) NextZ() int {
	z := a.nextZ
	a.nextZ++
	return z
}

// PlacedImage is one image positioned by the layout engine, ready to be
// embedded: the binary item it references and its display size in
// native units.
type PlacedImage struct {
	BinaryID string // manifest item id, e.g. "image4"
	Image    *imaging.Image
	Width    int
	Height   int
}

// BuildRecordBlock synthesizes the wrapper paragraph for one record: a
// 2-row 1-column table whose first cell holds the literal title and
// whose second cell holds one paragraph per layout row, each with one
// inline picture per placed image. Empty rows still produce a single
// empty paragraph so the block keeps its shape. The table consumes one
// z-order before its pictures.
func BuildRecordBlock(title string, rows [][]PlacedImage, style *StyleProfile, alloc *IDAllocator) *etree.Element {
	wrap := etree.NewElement("hp:p")
	wrap.CreateAttr("id", "0")
	wrap.CreateAttr("paraPrIDRef", style.WrapParaPr)
	wrap.CreateAttr("styleIDRef", "0")
	wrap.CreateAttr("pageBreak", "0")
	wrap.CreateAttr("columnBreak", "0")
	wrap.CreateAttr("merged", "0")

	run := wrap.CreateElement("hp:run")
	run.CreateAttr("charPrIDRef", style.WrapCharPr)
	run.AddChild(buildTable(title, rows, style, alloc))
	run.CreateElement("hp:t")

	lsa := wrap.CreateElement("hp:linesegarray")
	setLinesegAttrs(lsa.CreateElement("hp:lineseg"), style.WrapLineseg)
	return wrap
}

// buildTable builds the hp:tbl element for one record.
func buildTable(title string, rows [][]PlacedImage, style *StyleProfile, alloc *IDAllocator) *etree.Element {
	m := strconv.Itoa(style.MarginLR)
	mt := strconv.Itoa(style.MarginTB)
	om := strconv.Itoa(style.OutMargin)

	tbl := etree.NewElement("hp:tbl")
	setAttrs(tbl, [][2]string{
		{"id", strconv.Itoa(alloc.NextID())},
		{"zOrder", strconv.Itoa(alloc.NextZ())},
		{"numberingType", "TABLE"},
		{"textWrap", "TOP_AND_BOTTOM"},
		{"textFlow", "BOTH_SIDES"},
		{"lock", "0"},
		{"dropcapstyle", "None"},
		{"pageBreak", "CELL"},
		{"repeatHeader", "1"},
		{"rowCnt", "2"},
		{"colCnt", "1"},
		{"cellSpacing", "0"},
		{"borderFillIDRef", style.BorderFillID},
		{"noAdjust", "0"},
	})

	totalH := style.TitleRowH + style.ImgCellH + style.OutMargin
	setAttrs(tbl.CreateElement("hp:sz"), [][2]string{
		{"width", strconv.Itoa(style.CellW)}, {"widthRelTo", "ABSOLUTE"},
		{"height", strconv.Itoa(totalH)}, {"heightRelTo", "ABSOLUTE"}, {"protect", "0"},
	})
	setAttrs(tbl.CreateElement("hp:pos"), [][2]string{
		{"treatAsChar", "1"}, {"affectLSpacing", "0"}, {"flowWithText", "1"},
		{"allowOverlap", "0"}, {"holdAnchorAndSO", "0"},
		{"vertRelTo", "PARA"}, {"horzRelTo", "COLUMN"},
		{"vertAlign", "TOP"}, {"horzAlign", "LEFT"},
		{"vertOffset", strconv.Itoa(style.VertOffset)}, {"horzOffset", "0"},
	})
	setAttrs(tbl.CreateElement("hp:outMargin"), [][2]string{
		{"left", om}, {"right", om}, {"top", om}, {"bottom", om},
	})
	setAttrs(tbl.CreateElement("hp:inMargin"), [][2]string{
		{"left", m}, {"right", m}, {"top", mt}, {"bottom", mt},
	})

	buildTitleRow(tbl, title, style)
	buildImageRow(tbl, rows, style, alloc)
	return tbl
}

func buildCell(tr *etree.Element, style *StyleProfile) (*etree.Element, *etree.Element) {
	tc := tr.CreateElement("hp:tc")
	setAttrs(tc, [][2]string{
		{"name", ""}, {"header", "0"}, {"hasMargin", "0"},
		{"protect", "0"}, {"editable", "0"}, {"dirty", "0"},
		{"borderFillIDRef", style.BorderFillID},
	})
	sub := tc.CreateElement("hp:subList")
	setAttrs(sub, [][2]string{
		{"id", ""}, {"textDirection", "HORIZONTAL"}, {"lineWrap", "BREAK"},
		{"vertAlign", "CENTER"}, {"linkListIDRef", "0"}, {"linkListNextIDRef", "0"},
		{"textWidth", "0"}, {"textHeight", "0"}, {"hasTextRef", "0"}, {"hasNumRef", "0"},
	})
	return tc, sub
}

func finishCell(tc *etree.Element, style *StyleProfile, rowAddr, height int) {
	m := strconv.Itoa(style.MarginLR)
	mt := strconv.Itoa(style.MarginTB)
	setAttrs(tc.CreateElement("hp:cellAddr"), [][2]string{
		{"colAddr", "0"}, {"rowAddr", strconv.Itoa(rowAddr)},
	})
	setAttrs(tc.CreateElement("hp:cellSpan"), [][2]string{
		{"colSpan", "1"}, {"rowSpan", "1"},
	})
	setAttrs(tc.CreateElement("hp:cellSz"), [][2]string{
		{"width", strconv.Itoa(style.CellW)}, {"height", strconv.Itoa(height)},
	})
	setAttrs(tc.CreateElement("hp:cellMargin"), [][2]string{
		{"left", m}, {"right", m}, {"top", mt}, {"bottom", mt},
	})
}

func buildTitleRow(tbl *etree.Element, title string, style *StyleProfile) {
	tr := tbl.CreateElement("hp:tr")
	tc, sub := buildCell(tr, style)

	p := sub.CreateElement("hp:p")
	setAttrs(p, [][2]string{
		{"id", "0"},
		{"paraPrIDRef", style.TitleParaPr},
		{"styleIDRef", style.TitleStyleID},
		{"pageBreak", "0"}, {"columnBreak", "0"}, {"merged", "0"},
	})
	run := p.CreateElement("hp:run")
	run.CreateAttr("charPrIDRef", style.TitleCharPr)
	run.CreateElement("hp:t").SetText(title)
	lsa := p.CreateElement("hp:linesegarray")
	setLinesegAttrs(lsa.CreateElement("hp:lineseg"), style.TitleLineseg)

	finishCell(tc, style, 0, style.TitleRowH)
}

func buildImageRow(tbl *etree.Element, rows [][]PlacedImage, style *StyleProfile, alloc *IDAllocator) {
	tr := tbl.CreateElement("hp:tr")
	tc, sub := buildCell(tr, style)

	horzsize := style.TitleLineseg["horzsize"]
	if horzsize == "" {
		horzsize = "50856"
	}

	newPara := func() *etree.Element {
		p := sub.CreateElement("hp:p")
		setAttrs(p, [][2]string{
			{"id", "0"},
			{"paraPrIDRef", style.ImgParaPr},
			{"styleIDRef", style.ImgStyleID},
			{"pageBreak", "0"}, {"columnBreak", "0"}, {"merged", "0"},
		})
		return p
	}

	if len(rows) == 0 {
		p := newPara()
		p.CreateElement("hp:run").CreateAttr("charPrIDRef", style.ImgCharPr)
		lsa := p.CreateElement("hp:linesegarray")
		setAttrs(lsa.CreateElement("hp:lineseg"), [][2]string{
			{"textpos", "0"}, {"vertpos", "0"}, {"vertsize", "1000"},
			{"textheight", "1000"}, {"baseline", "850"}, {"spacing", "600"},
			{"horzpos", "0"}, {"horzsize", horzsize}, {"flags", "393216"},
		})
	} else {
		for _, row := range rows {
			p := newPara()
			run := p.CreateElement("hp:run")
			run.CreateAttr("charPrIDRef", style.ImgCharPr)
			maxH := 0
			for _, placed := range row {
				run.AddChild(buildPic(placed, alloc))
				if placed.Height > maxH {
					maxH = placed.Height
				}
			}
			lsa := p.CreateElement("hp:linesegarray")
			setAttrs(lsa.CreateElement("hp:lineseg"), [][2]string{
				{"textpos", "0"}, {"vertpos", "0"},
				{"vertsize", strconv.Itoa(maxH)}, {"textheight", strconv.Itoa(maxH)},
				{"baseline", strconv.Itoa(int(math.Round(float64(maxH) * 0.85)))},
				{"spacing", "600"},
				{"horzpos", "0"}, {"horzsize", horzsize}, {"flags", "393216"},
			})
		}
	}

	finishCell(tc, style, 1, style.ImgCellH)
}

// buildPic synthesizes one inline (treatAsChar) picture element. The
// display size goes into orgSz/sz/imgRect; the physical size derived
// from pixels and DPI goes into imgClip/imgDim.
func buildPic(placed PlacedImage, alloc *IDAllocator) *etree.Element {
	img := placed.Image
	dispW := strconv.Itoa(placed.Width)
	dispH := strconv.Itoa(placed.Height)
	orgW := strconv.Itoa(PixelsToUnits(img.Width, img.DPIX))
	orgH := strconv.Itoa(PixelsToUnits(img.Height, img.DPIY))

	pic := etree.NewElement("hp:pic")
	setAttrs(pic, [][2]string{
		{"id", strconv.Itoa(alloc.NextID())},
		{"zOrder", strconv.Itoa(alloc.NextZ())},
		{"numberingType", "PICTURE"},
		{"textWrap", "TOP_AND_BOTTOM"},
		{"textFlow", "BOTH_SIDES"},
		{"lock", "0"},
		{"dropcapstyle", "None"},
		{"href", ""},
		{"groupLevel", "0"},
		{"instid", strconv.Itoa(alloc.NextID())},
		{"reverse", "0"},
	})

	setAttrs(pic.CreateElement("hp:offset"), [][2]string{{"x", "0"}, {"y", "0"}})
	// orgSz carries the rendered size; curSz 0,0 means "same as sz".
	setAttrs(pic.CreateElement("hp:orgSz"), [][2]string{{"width", dispW}, {"height", dispH}})
	setAttrs(pic.CreateElement("hp:curSz"), [][2]string{{"width", "0"}, {"height", "0"}})
	setAttrs(pic.CreateElement("hp:flip"), [][2]string{{"horizontal", "0"}, {"vertical", "0"}})
	setAttrs(pic.CreateElement("hp:rotationInfo"), [][2]string{
		{"angle", "0"},
		{"centerX", strconv.Itoa(placed.Width / 2)},
		{"centerY", strconv.Itoa(placed.Height / 2)},
		{"rotateimage", "1"},
	})

	identity := [][2]string{
		{"e1", "1"}, {"e2", "0"}, {"e3", "0"}, {"e4", "0"}, {"e5", "1"}, {"e6", "0"},
	}
	ri := pic.CreateElement("hp:renderingInfo")
	setAttrs(ri.CreateElement("hc:transMatrix"), identity)
	setAttrs(ri.CreateElement("hc:scaMatrix"), identity)
	setAttrs(ri.CreateElement("hc:rotMatrix"), identity)

	setAttrs(pic.CreateElement("hc:img"), [][2]string{
		{"binaryItemIDRef", placed.BinaryID},
		{"bright", "0"}, {"contrast", "0"}, {"effect", "REAL_PIC"}, {"alpha", "0"},
	})

	rect := pic.CreateElement("hp:imgRect")
	setAttrs(rect.CreateElement("hc:pt0"), [][2]string{{"x", "0"}, {"y", "0"}})
	setAttrs(rect.CreateElement("hc:pt1"), [][2]string{{"x", dispW}, {"y", "0"}})
	setAttrs(rect.CreateElement("hc:pt2"), [][2]string{{"x", dispW}, {"y", dispH}})
	setAttrs(rect.CreateElement("hc:pt3"), [][2]string{{"x", "0"}, {"y", dispH}})

	// Full image, no crop: clip and dim carry the physical size.
	setAttrs(pic.CreateElement("hp:imgClip"), [][2]string{
		{"left", "0"}, {"right", orgW}, {"top", "0"}, {"bottom", orgH},
	})
	setAttrs(pic.CreateElement("hp:inMargin"), [][2]string{
		{"left", "0"}, {"right", "0"}, {"top", "0"}, {"bottom", "0"},
	})
	setAttrs(pic.CreateElement("hp:imgDim"), [][2]string{
		{"dimwidth", orgW}, {"dimheight", orgH},
	})
	pic.CreateElement("hp:effects")
	setAttrs(pic.CreateElement("hp:sz"), [][2]string{
		{"width", dispW}, {"widthRelTo", "ABSOLUTE"},
		{"height", dispH}, {"heightRelTo", "ABSOLUTE"}, {"protect", "0"},
	})
	setAttrs(pic.CreateElement("hp:pos"), [][2]string{
		{"treatAsChar", "1"}, {"affectLSpacing", "0"}, {"flowWithText", "1"},
		{"allowOverlap", "0"}, {"holdAnchorAndSO", "0"},
		{"vertRelTo", "PARA"}, {"horzRelTo", "COLUMN"},
		{"vertAlign", "TOP"}, {"horzAlign", "LEFT"},
		{"vertOffset", "0"}, {"horzOffset", "0"},
	})
	setAttrs(pic.CreateElement("hp:outMargin"), [][2]string{
		{"left", "0"}, {"right", "0"}, {"top", "0"}, {"bottom", "0"},
	})
	pic.CreateElement("hp:shapeComment")
	return pic
}

func setAttrs(el *etree.Element, attrs [][2]string) {
	for _, kv := range attrs {
		el.CreateAttr(kv[0], kv[1])
	}
}

// linesegKeys is the attribute order Hancom emits; extracted lineseg
// maps are written back in this order so serialization stays
// deterministic, with unknown keys appended sorted.
var linesegKeys = []string{
	"textpos", "vertpos", "vertsize", "textheight", "baseline",
	"spacing", "horzpos", "horzsize", "flags",
}

func setLinesegAttrs(el *etree.Element, attrs map[string]string) {
	written := make(map[string]bool, len(attrs))
	for _, key := range linesegKeys {
		if v, ok := attrs[key]; ok {
			el.CreateAttr(key, v)
			written[key] = true
		}
	}
	var rest []string
	for key := range attrs {
		if !written[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	for _, key := range rest {
		el.CreateAttr(key, attrs[key])
	}
}
