package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strings"

	"docbind/internal/common"
	"docbind/internal/fieldpath"
)

// ErrInvalidDocument is returned when a payload is not a readable DOCX archive.
var ErrInvalidDocument = errors.New("invalid DOCX document")

const mainPart = "word/document.xml"

var loopOpen = regexp.MustCompile(`\{\{#\w+\}\}`)

// Document is the text content of a DOCX template.
type Document struct {
	Paragraphs []Paragraph
	Tables     []Table
	Sections   int
}

// Paragraph is the concatenated run text of one w:p element.
type Paragraph struct {
	Part    string
	Text    string
	InTable bool
}

// Table describes one top-level table of the main document part.
type Table struct {
	Index   int  `json:"index" yaml:"index"`
	Rows    int  `json:"row_count" yaml:"row_count"`
	Cols    int  `json:"col_count" yaml:"col_count"`
	HasLoop bool `json:"has_loop" yaml:"has_loop"`
}

// Structure summarizes the layout of the main document part.
type Structure struct {
	ParagraphCount int     `json:"paragraph_count" yaml:"paragraph_count"`
	TableCount     int     `json:"table_count" yaml:"table_count"`
	SectionCount   int     `json:"section_count" yaml:"section_count"`
	Tables         []Table `json:"tables" yaml:"tables"`
}

// Open reads a DOCX payload. The main document part is required; header and
// footer parts are read when present.
func Open(payload []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	parts := make(map[string]*zip.File)

	for _, f := range zr.File {
		parts[f.Name] = f
	}

	main, ok := parts[mainPart]
	if !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrInvalidDocument, mainPart)
	}

	doc := &Document{}

	if err := doc.readPart(main, true); err != nil {
		return nil, err
	}

	var extra []string

	for name := range parts {
		base := path.Base(name)
		if path.Dir(name) == "word" && strings.HasSuffix(base, ".xml") &&
			(strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")) {
			extra = append(extra, name)
		}
	}

	sort.Strings(extra)

	for _, name := range extra {
		if err := doc.readPart(parts[name], false); err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func (d *Document) readPart(f *zip.File, main bool) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, f.Name, err)
	}
	defer rc.Close()

	s := &scanner{doc: d, part: f.Name, main: main}
	if err := s.scan(xml.NewDecoder(rc)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDocument, f.Name, err)
	}

	return nil
}

// Text returns all paragraph text, one paragraph per line.
func (d *Document) Text() string {
	lines := make([]string, 0, len(d.Paragraphs))
	for _, p := range d.Paragraphs {
		lines = append(lines, p.Text)
	}

	return strings.Join(lines, "\n")
}

// Placeholders returns the distinct field paths referenced by the document,
// in document order. Loop markers and formatter suffixes are removed.
func (d *Document) Placeholders() []string {
	var all []string
	for _, p := range d.Paragraphs {
		all = append(all, fieldpath.Extract(p.Text)...)
	}

	return common.Dedup(all)
}

// LoopFields returns the distinct relation names opened by {{#name}} markers.
func (d *Document) LoopFields() []string {
	var all []string
	for _, p := range d.Paragraphs {
		all = append(all, fieldpath.LoopFields(p.Text)...)
	}

	return common.Dedup(all)
}

// Structure summarizes the main document part. Only body-level paragraphs
// are counted.
func (d *Document) Structure() Structure {
	s := Structure{
		TableCount:   len(d.Tables),
		SectionCount: d.Sections,
		Tables:       append([]Table{}, d.Tables...),
	}

	for _, p := range d.Paragraphs {
		if p.Part == mainPart && !p.InTable {
			s.ParagraphCount++
		}
	}

	return s
}

// scanner walks WordprocessingML tokens and collects paragraphs and tables.
type scanner struct {
	doc  *Document
	part string
	main bool

	para   *strings.Builder
	inRun  int
	inText bool

	tableDepth int
	table      *Table
	gridCols   int
	maxCells   int
	row        []string
	cell       []string
}

func (s *scanner) scan(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}

		if err != nil {
			return err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			s.start(t.Name.Local)
		case xml.EndElement:
			s.end(t.Name.Local)
		case xml.CharData:
			if s.inText && s.para != nil {
				s.para.Write(t)
			}
		}
	}
}

func (s *scanner) start(local string) {
	switch local {
	case "p":
		s.para = &strings.Builder{}
	case "r":
		s.inRun++
	case "t":
		s.inText = s.inRun > 0
	case "tab":
		if s.para != nil && s.inRun > 0 {
			s.para.WriteByte('\t')
		}
	case "br", "cr":
		if s.para != nil && s.inRun > 0 {
			s.para.WriteByte('\n')
		}
	case "tbl":
		s.tableDepth++
		if s.tableDepth == 1 && s.main {
			s.table = &Table{Index: len(s.doc.Tables)}
			s.gridCols, s.maxCells = 0, 0
		}
	case "gridCol":
		if s.tableDepth == 1 {
			s.gridCols++
		}
	case "tr":
		if s.tableDepth == 1 {
			s.row = s.row[:0]
		}
	case "tc":
		if s.tableDepth == 1 {
			s.cell = s.cell[:0]
		}
	case "sectPr":
		if s.main {
			s.doc.Sections++
		}
	}
}

func (s *scanner) end(local string) {
	switch local {
	case "r":
		s.inRun = max(s.inRun-1, 0)
	case "t":
		s.inText = false
	case "p":
		if s.para == nil {
			return
		}

		text := s.para.String()
		s.para = nil

		s.doc.Paragraphs = append(s.doc.Paragraphs, Paragraph{
			Part:    s.part,
			Text:    text,
			InTable: s.tableDepth > 0,
		})

		if s.tableDepth >= 1 {
			s.cell = append(s.cell, text)
		}
	case "tc":
		if s.tableDepth == 1 {
			s.row = append(s.row, strings.Join(s.cell, "\n"))
		}
	case "tr":
		if s.tableDepth == 1 && s.table != nil {
			s.table.Rows++
			s.maxCells = max(s.maxCells, len(s.row))

			if loopOpen.MatchString(strings.Join(s.row, " ")) {
				s.table.HasLoop = true
			}
		}
	case "tbl":
		if s.tableDepth == 1 && s.table != nil {
			s.table.Cols = s.gridCols
			if s.table.Cols == 0 || s.table.Rows == 0 {
				s.table.Cols = s.maxCells
			}

			if s.table.Rows == 0 {
				s.table.Cols = 0
			}

			s.doc.Tables = append(s.doc.Tables, *s.table)
			s.table = nil
		}

		s.tableDepth--
	}
}
