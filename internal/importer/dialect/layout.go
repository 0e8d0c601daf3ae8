package dialect

import (
	"fmt"
	"slices"
	"strings"
)

type HeaderMode int

const (
	// HeaderFromFile reads column names from the export's header line.
	HeaderFromFile HeaderMode = iota
	// FixedHeader ignores the export's header and uses the provider-known columns.
	FixedHeader
)

// Layout describes where the header and the data live in an export.
type Layout struct {
	Delimiter rune
	Mode      HeaderMode
	// Columns is the schema used in FixedHeader mode.
	Columns []string
	// HeaderLine is the 1-based line of the export's own header. Data starts on
	// the line after it; everything before it is metadata. Zero means 1.
	HeaderLine int
	// Placeholder is the provider's explicit "no value" marker.
	Placeholder string
}

func (l Layout) headerLine() int {
	return max(l.HeaderLine, 1)
}

// DataStart is the 0-based index of the first data line.
func (l Layout) DataStart() int {
	return l.headerLine()
}

// Headers returns the ordered, unique column names for text. A missing or blank
// header line yields no columns.
func (l Layout) Headers(text string) []string {
	if l.Mode == FixedHeader {
		return slices.Clone(l.Columns)
	}

	lines := SplitLines(text)
	if len(lines) < l.headerLine() {
		return nil
	}

	line := strings.TrimSpace(lines[l.headerLine()-1])
	if line == "" {
		return nil
	}

	tokens := strings.Split(line, string(l.Delimiter))
	for i, tok := range tokens {
		tokens[i] = strings.Trim(strings.TrimSpace(tok), `"`)
	}

	return uniqueNames(tokens)
}

// uniqueNames suffixes repeated names with _2, _3, ... in order of appearance.
func uniqueNames(names []string) []string {
	seen := make(map[string]int, len(names))
	out := make([]string, 0, len(names))

	for _, name := range names {
		seen[name]++

		n := seen[name]
		if n == 1 {
			out = append(out, name)
			continue
		}

		candidate := fmt.Sprintf("%s_%d", name, n)
		for seen[candidate] > 0 {
			n++
			candidate = fmt.Sprintf("%s_%d", name, n)
		}

		seen[candidate]++
		out = append(out, candidate)
	}

	return out
}

// SplitLines splits on \n and drops a trailing \r from each line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

// PadRow appends placeholder cells to a line that has fewer than width fields,
// for providers that omit trailing optional columns instead of leaving them empty.
// Blank lines and lines ending inside a quoted field are returned unchanged.
func PadRow(line string, delim rune, width int, placeholder string) string {
	if width <= 0 || strings.TrimSpace(line) == "" {
		return line
	}

	n, open := countFields(line, delim)
	if open || n >= width {
		return line
	}

	var b strings.Builder

	b.WriteString(line)

	for range width - n {
		b.WriteRune(delim)
		b.WriteString(placeholder)
	}

	return b.String()
}

// countFields counts delimiter-separated fields outside quotes. open reports an
// unterminated quote at the end of the line.
func countFields(line string, delim rune) (n int, open bool) {
	n = 1

	for _, r := range line {
		switch {
		case r == '"':
			open = !open
		case r == delim && !open:
			n++
		}
	}

	return n, open
}
