package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCSVSingleRow(t *testing.T) {
	doc := ParseCSV("first_name,last_name,phone\nJohn,Doe,233245678910")

	assert.Equal(t, []string{"first_name", "last_name", "phone"}, doc.Headers)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "John", doc.Rows[0]["first_name"])
	assert.Equal(t, "Doe", doc.Rows[0]["last_name"])
	assert.Equal(t, "233245678910", doc.Rows[0]["phone"])
}

func TestParseCSVQuotedDelimiter(t *testing.T) {
	doc := ParseCSV("a,\"b,c\",d\n1,2,3")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "2", doc.Rows[0]["b,c"])
	assert.Equal(t, "1", doc.Rows[0]["a"])
	assert.Equal(t, "3", doc.Rows[0]["d"])
}

func TestParseCSVEscapedQuote(t *testing.T) {
	doc := ParseCSV("name,quote\nJohn,\"say \"\"hi\"\"\"")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, `say "hi"`, doc.Rows[0]["quote"])
}

func TestParseCSVSemicolonDelimiter(t *testing.T) {
	// Semicolon-delimited input whose quoted values contain commas
	doc := ParseCSV("name;note\nJohn;\"one, two\"")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "one, two", doc.Rows[0]["note"])
}

func TestParseCSVTabDelimiter(t *testing.T) {
	doc := ParseCSV("name\tphone\nJohn\t233245678910")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "233245678910", doc.Rows[0]["phone"])
}

func TestParseCSVShortRow(t *testing.T) {
	// Missing trailing fields become empty strings
	doc := ParseCSV("a,b,c\n1,2")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "2", doc.Rows[0]["b"])
	assert.Equal(t, "", doc.Rows[0]["c"])
}

func TestParseCSVEmptyHeaderName(t *testing.T) {
	doc := ParseCSV("a,,c\n1,2,3")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "2", doc.Rows[0][""])
}

func TestParseCSVBlankLinesAndCRLF(t *testing.T) {
	doc := ParseCSV("a,b\r\n\r\n1,2\r\n\r\n3,4\r\n")

	require.Len(t, doc.Rows, 2)
	assert.Equal(t, "1", doc.Rows[0]["a"])
	assert.Equal(t, "4", doc.Rows[1]["b"])
}

func TestParseCSVEmptyInput(t *testing.T) {
	assert.Empty(t, ParseCSV("").Rows)
	assert.Empty(t, ParseCSV("   \n \n").Rows)
}

func TestParseCSVSingleQuotes(t *testing.T) {
	doc := ParseCSV("a,b\n'one, two',3")

	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "one, two", doc.Rows[0]["a"])
	assert.Equal(t, "3", doc.Rows[0]["b"])
}
