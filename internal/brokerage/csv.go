package brokerage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/mtlprog/rebalancer/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// splitLines strips a UTF-8 BOM and surrounding blank space and splits content into lines.
func splitLines(content []byte) []string {
	content = bytes.TrimPrefix(content, utf8BOM)
	text := strings.TrimSpace(strings.ReplaceAll(string(content), "\r\n", "\n"))
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// findHeader returns the index of the first line containing "Symbol" and any of the markers.
func findHeader(lines []string, markers ...string) (int, bool) {
	_, idx, ok := lo.FindIndexOf(lines, func(line string) bool {
		return strings.Contains(line, "Symbol") &&
			lo.SomeBy(markers, func(m string) bool { return strings.Contains(line, m) })
	})
	return idx, ok
}

// row is one CSV record addressed by header name.
type row struct {
	columns map[string]int
	fields  []string
}

// get returns the first non-empty cell among the named columns, trimmed of spaces and quotes.
func (r row) get(names ...string) string {
	for _, name := range names {
		i, ok := r.columns[name]
		if !ok || i >= len(r.fields) {
			continue
		}
		if v := cleanCell(r.fields[i]); v != "" {
			return v
		}
	}
	return ""
}

func cleanCell(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}

// readTable parses lines (header first) into rows keyed by column name.
func readTable(lines []string) ([]row, error) {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	columns := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		name = cleanCell(name)
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	return lo.Map(records[1:], func(fields []string, _ int) row {
		return row{columns: columns, fields: fields}
	}), nil
}

var numberJunk = strings.NewReplacer("$", "", ",", "", `"`, "")

// parseNumber reads brokerage-formatted numbers like "$1,234.56". Placeholders such as "--" and
// "N/A" and anything unparseable read as zero.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(numberJunk.Replace(s))
	if s == "--" || strings.EqualFold(s, "N/A") {
		return 0
	}
	return domain.SafeParse(s).InexactFloat64()
}

// parsePrice is parseNumber for the optional price column: an empty or placeholder cell is nil.
func parsePrice(s string) *float64 {
	s = strings.TrimSpace(numberJunk.Replace(s))
	if s == "" || s == "--" || strings.EqualFold(s, "N/A") {
		return nil
	}
	p := domain.SafeParse(s).InexactFloat64()
	return &p
}
