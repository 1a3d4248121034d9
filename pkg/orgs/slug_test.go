package orgs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple name", "Acme Corporation", "acme-corporation"},
		{"apostrophe s removed without stray hyphen", "O'Brien's Org", "obriens-org"},
		{"possessive keeps its s", "D'Arcy's Workshop", "darcys-workshop"},
		{"ampersand spelled out", "A & B", "a-and-b"},
		{"only punctuation falls back", "---", "org"},
		{"empty input falls back", "", "org"},
		{"mixed case", "MyTeam", "myteam"},
		{"digits preserved", "Team 42", "team-42"},
		{"unicode stripped", "Café Ops", "caf-ops"},
		{"leading and trailing spaces", " padded ", "padded"},
		{"interior punctuation", "ops/infra (core)", "opsinfra-core"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugifyCollapsesHyphenRuns(t *testing.T) {
	inputs := []string{
		"  multiple   spaces ",
		"a - - b",
		"x --- y",
		"a &  & b",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			out := Slugify(in)
			assert.NotContains(t, out, "--", "hyphen runs must collapse")
			assert.False(t, strings.HasPrefix(out, "-"))
			assert.False(t, strings.HasSuffix(out, "-"))
		})
	}
}

func TestSlugifyDeterministic(t *testing.T) {
	for _, in := range []string{"Acme Corporation", "O'Brien's Org", "---", "A & B"} {
		assert.Equal(t, Slugify(in), Slugify(in))
	}
}
