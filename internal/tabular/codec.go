// Package tabular encodes tables of string fields as comma-separated lines.
//
// A literal comma inside a field is written as a backslash followed by a comma.
// Decoding splits on every comma and glues a piece back onto the next one when
// it ends in a backslash. A field that itself ends in a backslash is therefore
// not round-trippable; that is a limitation of the format and is not corrected.
package tabular

import (
	"strings"
)

const (
	delimiter = ","
	escape    = `\`
	newline   = "\n"
)

// EncodeRecord escapes every comma in each field and joins the fields with commas.
func EncodeRecord(fields []string) string {
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = strings.ReplaceAll(f, delimiter, escape+delimiter)
	}
	return strings.Join(escaped, delimiter)
}

// DecodeLine splits a line on unescaped commas.
func DecodeLine(line string) []string {
	pieces := strings.Split(line, delimiter)
	fields := make([]string, 0, len(pieces))

	carry := ""
	carrying := false
	for i, piece := range pieces {
		if carrying {
			piece = carry + delimiter + piece
		}
		if i < len(pieces)-1 && strings.HasSuffix(piece, escape) {
			carry = strings.TrimSuffix(piece, escape)
			carrying = true
			continue
		}
		fields = append(fields, piece)
		carrying = false
	}
	return fields
}

// Encode renders records joined by bare newlines, without a trailing newline.
func Encode(records [][]string) string {
	lines := make([]string, len(records))
	for i, r := range records {
		lines[i] = EncodeRecord(r)
	}
	return strings.Join(lines, newline)
}

// Decode parses content produced by Encode. Trailing newlines are ignored and
// empty content yields no records.
func Decode(content string) [][]string {
	content = strings.TrimRight(content, newline)
	if content == "" {
		return nil
	}
	lines := strings.Split(content, newline)
	records := make([][]string, len(lines))
	for i, line := range lines {
		records[i] = DecodeLine(line)
	}
	return records
}
