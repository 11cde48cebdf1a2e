package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersonalize(t *testing.T) {
	testCases := []struct {
		name      string
		template  string
		firstName string
		lastName  string
		want      string
	}{
		{"basic substitution", "Hi {{first_name}}", "Ama", "", "Hi Ama"},
		{"both tokens", "Hi {{first_name}} {{last_name}}", "Ama", "Mensah", "Hi Ama Mensah"},
		{"missing field becomes empty", "Hi {{first_name}}", "", "", "Hi "},
		{"internal whitespace", "Hi {{ first_name }}", "Ama", "", "Hi Ama"},
		{"case insensitive", "Hi {{FIRST_NAME}}", "Ama", "", "Hi Ama"},
		{"mixed case with spaces", "Hi {{ First_Name }} {{ LAST_NAME }}", "Ama", "Mensah", "Hi Ama Mensah"},
		{"unknown token untouched", "Hi {{nickname}}", "Ama", "", "Hi {{nickname}}"},
		{"repeated token", "{{first_name}} {{first_name}}", "Ama", "", "Ama Ama"},
		{"no tokens", "plain text", "Ama", "Mensah", "plain text"},
		{"empty template", "", "Ama", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Personalize(tc.template, tc.firstName, tc.lastName))
		})
	}
}
