package importer

import (
	"errors"
	"strings"

	"github.com/nusely/CFLSMS/server/phone"
)

var (
	ErrMissingMapping   = errors.New("first name and phone column mappings are required")
	ErrMissingGroupName = errors.New("a group name is required for the import batch")
	ErrNoValidRows      = errors.New("no valid contacts found, adjust the column mapping")
)

// Mapping assigns CSV headers to the contact fields the import cares about.
// LastName is optional.
type Mapping struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Stats summarizes row validity under the current mapping.
type Stats struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// ImportedContact is one validated row, phone already in E.164 digits.
type ImportedContact struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// AutoDetectMapping guesses the column mapping from header names. The
// first matching header wins for each field; later matches are ignored.
// Callers may override the result before confirming.
func AutoDetectMapping(headers []string) Mapping {
	mapping := Mapping{}
	for _, h := range headers {
		lower := strings.TrimSpace(strings.ToLower(h))

		if mapping.FirstName == "" && (strings.Contains(lower, "first") || strings.Contains(lower, "fname")) {
			mapping.FirstName = h
		}
		if mapping.LastName == "" &&
			(strings.Contains(lower, "last") || strings.Contains(lower, "lname") || strings.Contains(lower, "surname")) {
			mapping.LastName = h
		}
		if mapping.Phone == "" &&
			(strings.Contains(lower, "phone") || strings.Contains(lower, "mobile") ||
				strings.Contains(lower, "number") || strings.Contains(lower, "tel")) {
			mapping.Phone = h
		}
	}

	return mapping
}

// ComputeStats recounts {total, valid, invalid} from the current rows and
// mapping. It never re-parses; the counts stay live as the mapping changes.
func ComputeStats(rows []Row, mapping Mapping) Stats {
	if len(rows) == 0 || mapping.Phone == "" {
		return Stats{}
	}

	valid := 0
	for _, row := range rows {
		if phone.IsValid(row[mapping.Phone]) {
			valid++
		}
	}

	return Stats{Total: len(rows), Valid: valid, Invalid: len(rows) - valid}
}

// BuildContacts validates rows under the mapping and produces the import
// set. Rows whose phone fails normalization are dropped silently (they are
// reported through ComputeStats, not as errors). A blank first name becomes
// "Unknown"; a blank last name stays empty.
func BuildContacts(rows []Row, mapping Mapping) ([]ImportedContact, error) {
	if mapping.FirstName == "" || mapping.Phone == "" {
		return nil, ErrMissingMapping
	}

	contacts := []ImportedContact{}
	for _, row := range rows {
		digits, ok := phone.Normalize(row[mapping.Phone])
		if !ok {
			continue
		}

		firstName := strings.TrimSpace(row[mapping.FirstName])
		if firstName == "" {
			firstName = "Unknown"
		}

		lastName := ""
		if mapping.LastName != "" {
			lastName = strings.TrimSpace(row[mapping.LastName])
		}

		contacts = append(contacts, ImportedContact{
			FirstName: firstName,
			LastName:  lastName,
			Phone:     digits,
		})
	}

	if len(contacts) == 0 {
		return nil, ErrNoValidRows
	}

	return contacts, nil
}
