package importer

import "strings"

// Row maps a header name to the trimmed value of that column.
type Row map[string]string

// Document is a parsed CSV: the header names in column order plus one
// Row per data line.
type Document struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// ParseCSV tokenizes delimited text into rows keyed by the header line.
// The delimiter (comma, semicolon or tab) is detected from the first line
// and applied to every line. Quoted fields may use single or double quotes,
// with doubled quote characters as escapes.
func ParseCSV(text string) Document {
	empty := Document{Headers: []string{}, Rows: []Row{}}

	if strings.TrimSpace(text) == "" {
		return empty
	}

	normalized := strings.ReplaceAll(text, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	lines := []string{}
	for _, line := range strings.Split(normalized, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return empty
	}

	delimiter := detectDelimiter(lines[0])
	headers := parseLine(lines[0], delimiter)
	if len(headers) == 0 {
		return empty
	}

	rows := []Row{}
	for _, line := range lines[1:] {
		values := parseLine(line, delimiter)
		if len(values) == 0 {
			continue
		}

		row := Row{}
		for i, header := range headers {
			value := ""
			if i < len(values) {
				value = values[i]
			}
			row[header] = strings.Trim(strings.TrimSpace(value), `"'`)
		}
		rows = append(rows, row)
	}

	return Document{Headers: headers, Rows: rows}
}

// detectDelimiter inspects the first line only. Semicolon wins when no
// comma is present, then tab, then comma.
func detectDelimiter(firstLine string) rune {
	if strings.ContainsRune(firstLine, ';') && !strings.ContainsRune(firstLine, ',') {
		return ';'
	}
	if strings.ContainsRune(firstLine, '\t') {
		return '\t'
	}
	return ','
}

// parseLine scans a single line character by character, tracking whether
// the cursor is inside a quoted field and which quote character opened it.
func parseLine(line string, delimiter rune) []string {
	values := []string{}
	var current strings.Builder
	insideQuotes := false
	var quoteChar rune

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		char := runes[i]
		var nextChar rune
		if i+1 < len(runes) {
			nextChar = runes[i+1]
		}

		switch {
		case !insideQuotes && (char == '"' || char == '\''):
			insideQuotes = true
			quoteChar = char
		case insideQuotes && char == quoteChar && nextChar == quoteChar:
			// Doubled quote is an escaped literal quote
			current.WriteRune(char)
			i++
		case insideQuotes && char == quoteChar:
			insideQuotes = false
			quoteChar = 0
		case !insideQuotes && char == delimiter:
			values = append(values, current.String())
			current.Reset()
		default:
			current.WriteRune(char)
		}
	}
	values = append(values, current.String())

	for i, v := range values {
		values[i] = strings.TrimSpace(v)
	}

	return values
}
