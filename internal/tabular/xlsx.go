package tabular

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

// Read loads the selected sheet (opt.Sheet, or the first one). Only cell
// text is read; styles and formulas are ignored.
func (xlsxReader) Read(path string, opt Options) (*Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	sheets, rels, err := parseWorkbook(zr)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", filepath.Base(path), err)
	}
	target := ""
	if opt.Sheet != "" {
		for _, s := range sheets {
			if strings.EqualFold(s.Name, opt.Sheet) {
				if rel, ok := rels[s.RID]; ok {
					target = normalizeRelPath(rel)
				}
				break
			}
		}
		if target == "" {
			names := make([]string, len(sheets))
			for i, s := range sheets {
				names[i] = s.Name
			}
			return nil, fmt.Errorf("sheet '%s' not found in workbook '%s'; available sheets: %s",
				opt.Sheet, filepath.Base(path), strings.Join(names, ", "))
		}
	}
	if target == "" && len(sheets) > 0 {
		if rel, ok := rels[sheets[0].RID]; ok {
			target = normalizeRelPath(rel)
		}
	}
	if target == "" {
		target = "xl/worksheets/sheet1.xml"
	}

	shared, err := parseSharedStrings(zr)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", filepath.Base(path), err)
	}
	f, err := zr.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open sheet %s: %w", target, err)
	}
	defer f.Close()

	rr := &sheetRowReader{dec: xml.NewDecoder(f), shared: shared}
	t := &Table{Name: filepath.Base(path)}
	for {
		row, ok, err := rr.Next()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Name, err)
		}
		if !ok {
			return t, nil
		}
		if t.Header == nil {
			t.Header = row
			if t.Header == nil {
				t.Header = []string{}
			}
			continue
		}
		if !isBlank(row) {
			t.Rows = append(t.Rows, row)
		}
	}
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

// Package parts decoded from the workbook archive. Only the fields the
// reader needs are mapped.
type (
	wbSheet struct {
		Name string `xml:"name,attr"`
		RID  string `xml:"id,attr"` // r:id
	}
	workbookPart struct {
		Sheets []wbSheet `xml:"sheets>sheet"`
	}
	relsPart struct {
		Rels []struct {
			ID     string `xml:"Id,attr"`
			Target string `xml:"Target,attr"`
		} `xml:"Relationship"`
	}
	// richText is the body of <si> and <is>: plain <t> or a run list.
	richText struct {
		T    string `xml:"t"`
		Runs []struct {
			T string `xml:"t"`
		} `xml:"r"`
	}
	sstPart struct {
		Items []richText `xml:"si"`
	}
	sheetCell struct {
		Ref    string   `xml:"r,attr"`
		Type   string   `xml:"t,attr"`
		Value  string   `xml:"v"`
		Inline richText `xml:"is"`
	}
	sheetRow struct {
		Cells []sheetCell `xml:"c"`
	}
)

func (t richText) String() string {
	if len(t.Runs) == 0 {
		return t.T
	}
	var sb strings.Builder
	sb.WriteString(t.T)
	for _, r := range t.Runs {
		sb.WriteString(r.T)
	}
	return sb.String()
}

// readPart decodes one XML part into v. A missing part leaves v untouched.
func readPart(zr *zip.Reader, name string, v any) error {
	b, err := fs.ReadFile(zr, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := xml.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

func parseWorkbook(zr *zip.Reader) ([]wbSheet, map[string]string, error) {
	var wb workbookPart
	if err := readPart(zr, "xl/workbook.xml", &wb); err != nil {
		return nil, nil, err
	}
	var rp relsPart
	if err := readPart(zr, "xl/_rels/workbook.xml.rels", &rp); err != nil {
		return nil, nil, err
	}
	rels := make(map[string]string, len(rp.Rels))
	for _, r := range rp.Rels {
		if r.ID != "" && r.Target != "" {
			rels[r.ID] = r.Target
		}
	}
	return wb.Sheets, rels, nil
}

func parseSharedStrings(zr *zip.Reader) ([]string, error) {
	var sst sstPart
	if err := readPart(zr, "xl/sharedStrings.xml", &sst); err != nil {
		return nil, err
	}
	out := make([]string, len(sst.Items))
	for i, it := range sst.Items {
		out[i] = it.String()
	}
	return out, nil
}

// sheetRowReader streams <row> elements so large sheets are not decoded in
// one piece. Cells are placed by their column reference, so sparse rows keep
// their alignment.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
}

func (r *sheetRowReader) Next() ([]string, bool, error) {
	for {
		tok, err := r.dec.Token()
		if err == io.EOF {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, fmt.Errorf("decode sheet: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}
		var row sheetRow
		if err := r.dec.DecodeElement(&row, &se); err != nil {
			return nil, false, fmt.Errorf("decode sheet row: %w", err)
		}
		var out []string
		for _, c := range row.Cells {
			col := colIndexFromRef(c.Ref)
			if col < 0 {
				col = len(out)
			}
			for len(out) <= col {
				out = append(out, "")
			}
			out[col] = r.cellText(c)
		}
		return out, true, nil
	}
}

func (r *sheetRowReader) cellText(c sheetCell) string {
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(c.Value))
		if err != nil || idx < 0 || idx >= len(r.shared) {
			return ""
		}
		return r.shared[idx]
	case "inlineStr":
		return c.Inline.String()
	}
	return c.Value
}

// colIndexFromRef converts refs like "C12" to a 0-based column index, or -1
// when the ref has no column letters.
func colIndexFromRef(ref string) int {
	idx := 0
	for _, ch := range strings.ToUpper(ref) {
		if ch < 'A' || ch > 'Z' {
			break
		}
		idx = idx*26 + int(ch-'A'+1)
	}
	return idx - 1
}

// normalizeRelPath converts relationship Target paths to ZIP entry paths.
// Targets may carry a leading slash or be relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return "xl/" + rel
}
