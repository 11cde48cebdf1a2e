package dispatch

import "regexp"

var (
	firstNameToken = regexp.MustCompile(`(?i)\{\{\s*first_name\s*\}\}`)
	lastNameToken  = regexp.MustCompile(`(?i)\{\{\s*last_name\s*\}\}`)
)

// Personalize substitutes the two recognized placeholder tokens,
// {{first_name}} and {{last_name}} (case-insensitive, internal whitespace
// tolerated), with the recipient's fields. Missing fields become empty
// strings; any other token is left untouched.
func Personalize(template, firstName, lastName string) string {
	out := firstNameToken.ReplaceAllString(template, firstName)
	return lastNameToken.ReplaceAllString(out, lastName)
}
