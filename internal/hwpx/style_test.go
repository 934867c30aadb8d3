package hwpx

import (
	"testing"

	"github.com/beevik/etree"
)

// sectionWithBlock is a pared-down section0.xml: a header paragraph, one
// record block (2x1 table) and a footer paragraph.
const sectionWithBlock = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<hs:sec xmlns:hs="http://www.hancom.co.kr/hwpml/2011/section" xmlns:hp="http://www.hancom.co.kr/hwpml/2011/paragraph" xmlns:hc="http://www.hancom.co.kr/hwpml/2011/core">
  <hp:p id="1" paraPrIDRef="5" styleIDRef="0"><hp:run charPrIDRef="2"><hp:t>Header</hp:t></hp:run></hp:p>
  <hp:p id="2" paraPrIDRef="30" styleIDRef="0">
    <hp:run charPrIDRef="9">
      <hp:tbl id="50" zOrder="7" rowCnt="2" colCnt="1" borderFillIDRef="8">
        <hp:sz width="48000" widthRelTo="ABSOLUTE" height="24200" heightRelTo="ABSOLUTE" protect="0"/>
        <hp:pos treatAsChar="1" vertOffset="500" horzOffset="0"/>
        <hp:outMargin left="200" right="200" top="200" bottom="200"/>
        <hp:tr>
          <hp:tc borderFillIDRef="8">
            <hp:subList vertAlign="CENTER">
              <hp:p id="0" paraPrIDRef="11" styleIDRef="12" merged="0">
                <hp:run charPrIDRef="13"><hp:t>sample title</hp:t></hp:run>
                <hp:linesegarray><hp:lineseg textpos="0" vertpos="0" vertsize="900" textheight="900" baseline="450" spacing="0" horzpos="0" horzsize="47000" flags="393216"/></hp:linesegarray>
              </hp:p>
            </hp:subList>
            <hp:cellAddr colAddr="0" rowAddr="0"/>
            <hp:cellSpan colSpan="1" rowSpan="1"/>
            <hp:cellSz width="48000" height="4000"/>
            <hp:cellMargin left="400" right="400" top="100" bottom="100"/>
          </hp:tc>
        </hp:tr>
        <hp:tr>
          <hp:tc borderFillIDRef="8">
            <hp:subList vertAlign="CENTER">
              <hp:p id="0" paraPrIDRef="15" styleIDRef="16" merged="0">
                <hp:run charPrIDRef="17"/>
              </hp:p>
            </hp:subList>
            <hp:cellAddr colAddr="0" rowAddr="1"/>
            <hp:cellSpan colSpan="1" rowSpan="1"/>
            <hp:cellSz width="48000" height="20000"/>
            <hp:cellMargin left="400" right="400" top="100" bottom="100"/>
          </hp:tc>
        </hp:tr>
      </hp:tbl>
    </hp:run>
    <hp:t></hp:t>
    <hp:linesegarray><hp:lineseg textpos="0" vertpos="0" vertsize="1500" textheight="1500" baseline="1275" spacing="900" horzpos="0" horzsize="0" flags="393216"/></hp:linesegarray>
  </hp:p>
  <hp:p id="3" paraPrIDRef="5" styleIDRef="0"><hp:run charPrIDRef="2"><hp:t>Footer</hp:t></hp:run></hp:p>
</hs:sec>`

const sectionWithoutBlock = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<hs:sec xmlns:hs="http://www.hancom.co.kr/hwpml/2011/section" xmlns:hp="http://www.hancom.co.kr/hwpml/2011/paragraph">
  <hp:p id="1" paraPrIDRef="5" styleIDRef="0"><hp:run charPrIDRef="2"><hp:t>Just text</hp:t></hp:run></hp:p>
</hs:sec>`

func parseSection(t *testing.T, src string) (*etree.Document, *etree.Element) {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(src); err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc, doc.Root()
}

func TestExtractProfile(t *testing.T) {
	_, sec := parseSection(t, sectionWithBlock)

	profile, insertIdx, removed := ExtractProfile(sec)
	if removed != 1 {
		t.Fatalf("removed = %d; want 1", removed)
	}

	intFields := []struct {
		name string
		got  int
		want int
	}{
		{"CellW", profile.CellW, 48000},
		{"TitleRowH", profile.TitleRowH, 4000},
		{"ImgCellH", profile.ImgCellH, 20000},
		{"MarginLR", profile.MarginLR, 400},
		{"MarginTB", profile.MarginTB, 100},
		{"OutMargin", profile.OutMargin, 200},
		{"VertOffset", profile.VertOffset, 500},
	}
	for _, f := range intFields {
		if f.got != f.want {
			t.Errorf("%s = %d; want %d", f.name, f.got, f.want)
		}
	}

	strFields := []struct {
		name string
		got  string
		want string
	}{
		{"BorderFillID", profile.BorderFillID, "8"},
		{"TitleParaPr", profile.TitleParaPr, "11"},
		{"TitleStyleID", profile.TitleStyleID, "12"},
		{"TitleCharPr", profile.TitleCharPr, "13"},
		{"ImgParaPr", profile.ImgParaPr, "15"},
		{"ImgStyleID", profile.ImgStyleID, "16"},
		{"ImgCharPr", profile.ImgCharPr, "17"},
		{"WrapParaPr", profile.WrapParaPr, "30"},
		{"WrapCharPr", profile.WrapCharPr, "9"},
	}
	for _, f := range strFields {
		if f.got != f.want {
			t.Errorf("%s = %q; want %q", f.name, f.got, f.want)
		}
	}

	if profile.TitleLineseg["vertsize"] != "900" || profile.TitleLineseg["horzsize"] != "47000" {
		t.Errorf("title lineseg not extracted: %v", profile.TitleLineseg)
	}
	if profile.WrapLineseg["spacing"] != "900" {
		t.Errorf("wrap lineseg not extracted: %v", profile.WrapLineseg)
	}

	// The block is gone; only header and footer paragraphs remain.
	if blocks := findRecordBlocks(sec); len(blocks) != 0 {
		t.Errorf("%d record blocks remain after extraction", len(blocks))
	}
	if n := len(sec.ChildElements()); n != 2 {
		t.Errorf("%d paragraphs remain; want 2", n)
	}

	// Inserting at the reported index lands between header and footer.
	marker := etree.NewElement("hp:p")
	marker.CreateAttr("id", "99")
	sec.InsertChildAt(insertIdx, marker)
	children := sec.ChildElements()
	if len(children) != 3 || children[1].SelectAttrValue("id", "") != "99" {
		t.Errorf("insertion index %d does not point at the removed block's position", insertIdx)
	}
}

func TestExtractProfileDefaults(t *testing.T) {
	_, sec := parseSection(t, sectionWithoutBlock)

	profile, insertIdx, removed := ExtractProfile(sec)
	if removed != 0 {
		t.Fatalf("removed = %d; want 0", removed)
	}

	want := DefaultProfile()
	if *profileGeometry(profile) != *profileGeometry(want) {
		t.Errorf("geometry = %+v; want defaults %+v", profileGeometry(profile), profileGeometry(want))
	}
	if profile.BorderFillID != want.BorderFillID || profile.TitleCharPr != want.TitleCharPr {
		t.Errorf("style ids not defaulted: %+v", profile)
	}
	if insertIdx != len(sec.Child) {
		t.Errorf("insertIdx = %d; want end of children %d", insertIdx, len(sec.Child))
	}
}

// profileGeometry projects just the comparable numeric fields.
func profileGeometry(p *StyleProfile) *struct{ CellW, TitleRowH, ImgCellH, MarginLR, MarginTB, OutMargin, VertOffset int } {
	return &struct{ CellW, TitleRowH, ImgCellH, MarginLR, MarginTB, OutMargin, VertOffset int }{
		p.CellW, p.TitleRowH, p.ImgCellH, p.MarginLR, p.MarginTB, p.OutMargin, p.VertOffset,
	}
}

func TestImageAreaMM(t *testing.T) {
	p := DefaultProfile()
	w, h := p.ImageAreaMM()
	// 51877 units / (7200/25.4) = ~183mm, 25332 -> ~89mm.
	if w < 182 || w > 184 {
		t.Errorf("area width = %.2fmm; want ~183mm", w)
	}
	if h < 88 || h > 90 {
		t.Errorf("area height = %.2fmm; want ~89mm", h)
	}
}

func TestUnits(t *testing.T) {
	if got := MMToUnits(25.4); got != 7200 {
		t.Errorf("MMToUnits(25.4) = %d; want 7200", got)
	}
	if got := PixelsToUnits(96, 96); got != 7200 {
		t.Errorf("PixelsToUnits(96, 96) = %d; want 7200", got)
	}
	if got := PixelsToUnits(100, 0); got != 7500 {
		t.Errorf("PixelsToUnits(100, 0) = %d; want 7500 at the 96 DPI fallback", got)
	}
	if mm := UnitsToMM(7200); mm < 25.39 || mm > 25.41 {
		t.Errorf("UnitsToMM(7200) = %f; want 25.4", mm)
	}
}
