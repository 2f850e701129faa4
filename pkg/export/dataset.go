package export

import (
	"regexp"
	"strings"
	"time"
)

// CellKind guides typed writers. Plain-text writers only look at Value.
type CellKind int

const (
	// KindString cells are always written as text.
	KindString CellKind = iota
	// KindAuto cells are written as numbers when Value parses as one.
	KindAuto
	// KindDate cells carry a native timestamp in Time.
	KindDate
)

// Cell is a single exported value.
type Cell struct {
	Value string
	Kind  CellKind
	Time  time.Time
}

// String builds a plain text cell.
func String(v string) Cell { return Cell{Value: v} }

// Auto builds a cell that spreadsheet writers may type as numeric.
func Auto(v string) Cell { return Cell{Value: v, Kind: KindAuto} }

// Date builds a date cell with a preformatted fallback value.
func Date(t time.Time, formatted string) Cell {
	return Cell{Value: formatted, Kind: KindDate, Time: t}
}

// Dataset defines tabular export content with positional columns.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]Cell
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// StripTags removes HTML markup from rich-text names (course and module names
// may contain anchors or formatting spans).
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

var csvSanitizer = strings.NewReplacer(`"`, `'`, "\r\n", " ", "\n", " ", "\r", " ")

// SanitizeCSV neutralises characters that break the legacy CSV consumers:
// double quotes become single quotes and line breaks become spaces.
func SanitizeCSV(s string) string {
	return csvSanitizer.Replace(StripTags(s))
}
