package hwpx

import (
	"strconv"

	"github.com/beevik/etree"
)

// Paragraph-namespace prefix as emitted by the Hancom editors. Section
// markup declares hp: and hc: on its root, so synthesized elements
// reuse the prefixes directly.
const prefixHP = "hp"

// StyleProfile holds the cell geometry, margins and style identifiers
// one record block is built from. It is extracted once per run from the
// template's own record blocks; every field has a built-in default
// measured from the reference template, kept whenever extraction cannot
// resolve the field.
type StyleProfile struct {
	// Cell geometry, native units.
	CellW     int
	TitleRowH int
	ImgCellH  int
	// Cell margins.
	MarginLR int
	MarginTB int
	// Table outer margin, also folded into the table height.
	OutMargin int
	// Table vertical offset inside its anchor.
	VertOffset int

	// Style identifier references.
	BorderFillID string
	TitleParaPr  string
	TitleStyleID string
	TitleCharPr  string
	ImgParaPr    string
	ImgStyleID   string
	ImgCharPr    string
	WrapParaPr   string
	WrapCharPr   string

	// Line-metrics attribute sets for the title row and the wrapper
	// paragraph, copied verbatim onto synthesized lineseg elements.
	TitleLineseg map[string]string
	WrapLineseg  map[string]string
}

// DefaultProfile returns the all-default profile.
func DefaultProfile() *StyleProfile {
	return &StyleProfile{
		CellW:      51877,
		TitleRowH:  4117,
		ImgCellH:   25332,
		MarginLR:   510,
		MarginTB:   141,
		OutMargin:  283,
		VertOffset: 434,

		BorderFillID: "3",
		TitleParaPr:  "22",
		TitleStyleID: "22",
		TitleCharPr:  "13",
		ImgParaPr:    "20",
		ImgStyleID:   "0",
		ImgCharPr:    "14",
		WrapParaPr:   "20",
		WrapCharPr:   "7",

		TitleLineseg: map[string]string{
			"textpos": "0", "vertpos": "0", "vertsize": "1100", "textheight": "1100",
			"baseline": "550", "spacing": "0", "horzpos": "0", "horzsize": "50856",
			"flags": "393216",
		},
		WrapLineseg: map[string]string{
			"textpos": "0", "vertpos": "0", "vertsize": "1700", "textheight": "1700",
			"baseline": "1445", "spacing": "1020", "horzpos": "0", "horzsize": "0",
			"flags": "393216",
		},
	}
}

// ImageAreaMM reports the image cell's full region in millimeters, the
// container the layout engine packs into.
func (p *StyleProfile) ImageAreaMM() (w, h float64) {
	return UnitsToMM(p.CellW), UnitsToMM(p.ImgCellH)
}

// ExtractProfile locates every record block (a wrapper paragraph holding
// a 2-row 1-column table) among the section root's direct children,
// reads the profile from the first one, removes them all, and reports
// the token index where replacement blocks must be inserted along with
// the number of blocks removed. It never fails: unresolvable fields keep
// their defaults, and a template without record blocks yields the
// default profile with insertion at the end of the section.
func ExtractProfile(sec *etree.Element) (*StyleProfile, int, int) {
	blocks := findRecordBlocks(sec)

	profile := DefaultProfile()
	insertIdx := len(sec.Child)
	if len(blocks) > 0 {
		insertIdx = tokenIndex(sec, blocks[0])
		profile.readFrom(blocks[0])
	}
	for _, block := range blocks {
		sec.RemoveChild(block)
	}
	return profile, insertIdx, len(blocks)
}

// findRecordBlocks returns the direct hp:p children wrapping a 2x1 table.
func findRecordBlocks(sec *etree.Element) []*etree.Element {
	var blocks []*etree.Element
	for _, p := range sec.ChildElements() {
		if p.Space != prefixHP || p.Tag != "p" {
			continue
		}
		if recordTable(p) != nil {
			blocks = append(blocks, p)
		}
	}
	return blocks
}

// recordTable digs out the 2-row 1-column hp:tbl under a wrapper
// paragraph, or nil.
func recordTable(p *etree.Element) *etree.Element {
	for _, run := range p.ChildElements() {
		if run.Space != prefixHP || run.Tag != "run" {
			continue
		}
		for _, tbl := range run.ChildElements() {
			if tbl.Space == prefixHP && tbl.Tag == "tbl" &&
				tbl.SelectAttrValue("rowCnt", "") == "2" &&
				tbl.SelectAttrValue("colCnt", "") == "1" {
				return tbl
			}
		}
	}
	return nil
}

// tokenIndex finds the position of a child within the parent's token
// list, counting character data between elements.
func tokenIndex(parent *etree.Element, child *etree.Element) int {
	for i, token := range parent.Child {
		if token == etree.Token(child) {
			return i
		}
	}
	return len(parent.Child)
}

// readFrom refines the profile from one wrapper paragraph, best effort.
func (p *StyleProfile) readFrom(wrap *etree.Element) {
	p.WrapParaPr = wrap.SelectAttrValue("paraPrIDRef", p.WrapParaPr)
	if run := wrap.SelectElement("hp:run"); run != nil {
		p.WrapCharPr = run.SelectAttrValue("charPrIDRef", p.WrapCharPr)
	}
	if lsa := wrap.SelectElement("hp:linesegarray"); lsa != nil {
		if segs := lsa.ChildElements(); len(segs) > 0 {
			p.WrapLineseg = attrMap(segs[0])
		}
	}

	tbl := recordTable(wrap)
	if tbl == nil {
		return
	}
	p.BorderFillID = tbl.SelectAttrValue("borderFillIDRef", p.BorderFillID)
	if pos := tbl.SelectElement("hp:pos"); pos != nil {
		p.VertOffset = intAttr(pos, "vertOffset", p.VertOffset)
	}
	if out := tbl.SelectElement("hp:outMargin"); out != nil {
		p.OutMargin = intAttr(out, "bottom", p.OutMargin)
	}

	rows := tbl.SelectElements("hp:tr")
	if len(rows) < 2 {
		return
	}
	p.readCell(rows[0].SelectElement("hp:tc"), true)
	p.readCell(rows[1].SelectElement("hp:tc"), false)
}

// readCell refines geometry and styles from one table cell.
func (p *StyleProfile) readCell(tc *etree.Element, isTitle bool) {
	if tc == nil {
		return
	}
	if sz := tc.SelectElement("hp:cellSz"); sz != nil {
		p.CellW = intAttr(sz, "width", p.CellW)
		if isTitle {
			p.TitleRowH = intAttr(sz, "height", p.TitleRowH)
		} else {
			p.ImgCellH = intAttr(sz, "height", p.ImgCellH)
		}
	}
	if cm := tc.SelectElement("hp:cellMargin"); cm != nil {
		p.MarginLR = intAttr(cm, "left", p.MarginLR)
		p.MarginTB = intAttr(cm, "top", p.MarginTB)
	}

	sub := tc.SelectElement("hp:subList")
	if sub == nil {
		return
	}
	para := sub.SelectElement("hp:p")
	if para == nil {
		return
	}
	run := para.SelectElement("hp:run")
	if isTitle {
		p.TitleParaPr = para.SelectAttrValue("paraPrIDRef", p.TitleParaPr)
		p.TitleStyleID = para.SelectAttrValue("styleIDRef", p.TitleStyleID)
		if run != nil {
			p.TitleCharPr = run.SelectAttrValue("charPrIDRef", p.TitleCharPr)
		}
		if lsa := para.SelectElement("hp:linesegarray"); lsa != nil {
			if segs := lsa.ChildElements(); len(segs) > 0 {
				p.TitleLineseg = attrMap(segs[0])
			}
		}
	} else {
		p.ImgParaPr = para.SelectAttrValue("paraPrIDRef", p.ImgParaPr)
		p.ImgStyleID = para.SelectAttrValue("styleIDRef", p.ImgStyleID)
		if run != nil {
			p.ImgCharPr = run.SelectAttrValue("charPrIDRef", p.ImgCharPr)
		}
	}
}

func attrMap(el *etree.Element) map[string]string {
	m := make(map[string]string, len(el.Attr))
	for _, attr := range el.Attr {
		m[attr.Key] = attr.Value
	}
	return m
}

func intAttr(el *etree.Element, key string, fallback int) int {
	v := el.SelectAttrValue(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
