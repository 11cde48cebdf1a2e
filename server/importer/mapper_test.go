package importer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutoDetectMapping(t *testing.T) {
	mapping := AutoDetectMapping([]string{"First Name", "Surname", "Mobile Number", "Email"})

	assert.Equal(t, "First Name", mapping.FirstName)
	assert.Equal(t, "Surname", mapping.LastName)
	assert.Equal(t, "Mobile Number", mapping.Phone)
}

func TestAutoDetectMappingFirstMatchWins(t *testing.T) {
	mapping := AutoDetectMapping([]string{"fname", "first_name", "phone", "telephone"})

	assert.Equal(t, "fname", mapping.FirstName)
	assert.Equal(t, "phone", mapping.Phone)
}

func TestAutoDetectMappingNoMatches(t *testing.T) {
	mapping := AutoDetectMapping([]string{"a", "b"})

	assert.Equal(t, Mapping{}, mapping)
}

func TestComputeStats(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("first_name,phone\n")
	for i := 0; i < 7; i++ {
		fmt.Fprintf(&sb, "Valid%d,23324567891%d\n", i, i)
	}
	sb.WriteString("BadA,0245678910\n")
	sb.WriteString("BadB,123\n")
	sb.WriteString("BadC,\n")

	doc := ParseCSV(sb.String())
	mapping := Mapping{FirstName: "first_name", Phone: "phone"}

	stats := ComputeStats(doc.Rows, mapping)
	assert.Equal(t, Stats{Total: 10, Valid: 7, Invalid: 3}, stats)

	contacts, err := BuildContacts(doc.Rows, mapping)
	require.NoError(t, err)
	assert.Len(t, contacts, 7)
}

func TestComputeStatsWithoutPhoneMapping(t *testing.T) {
	doc := ParseCSV("a,b\n1,2")

	assert.Equal(t, Stats{}, ComputeStats(doc.Rows, Mapping{FirstName: "a"}))
}

func TestBuildContactsDefaultsAndDrops(t *testing.T) {
	doc := ParseCSV("first,last,tel\n,Doe,233245678910\nJane,,2.33544E+11\nBad,Row,not-a-phone")
	mapping := Mapping{FirstName: "first", LastName: "last", Phone: "tel"}

	contacts, err := BuildContacts(doc.Rows, mapping)
	require.NoError(t, err)
	require.Len(t, contacts, 2)

	assert.Equal(t, "Unknown", contacts[0].FirstName)
	assert.Equal(t, "Doe", contacts[0].LastName)
	assert.Equal(t, "233245678910", contacts[0].Phone)

	assert.Equal(t, "Jane", contacts[1].FirstName)
	assert.Equal(t, "", contacts[1].LastName)
	assert.Equal(t, "233544000000", contacts[1].Phone)
}

func TestBuildContactsMissingMapping(t *testing.T) {
	doc := ParseCSV("first,tel\nJohn,233245678910")

	_, err := BuildContacts(doc.Rows, Mapping{Phone: "tel"})
	assert.ErrorIs(t, err, ErrMissingMapping)
}

func TestBuildContactsNoValidRows(t *testing.T) {
	doc := ParseCSV("first,tel\nJohn,0240000000")

	_, err := BuildContacts(doc.Rows, Mapping{FirstName: "first", Phone: "tel"})
	assert.ErrorIs(t, err, ErrNoValidRows)
}
