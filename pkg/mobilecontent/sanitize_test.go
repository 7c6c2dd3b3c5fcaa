package mobilecontent_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mobilehub/mobile-content/pkg/mobilecontent"
)

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain text unchanged", input: "Pixel 9 Pro", want: "Pixel 9 Pro"},
		{name: "trims surrounding space", input: "  hello  ", want: "hello"},
		{name: "strips markup", input: "<b>bold</b> move", want: "bold move"},
		{name: "drops script with payload", input: "a<script>alert(1)</script>b", want: "ab"},
		{name: "collapses internal whitespace", input: "a \t\n b", want: "a b"},
		{name: "drops control characters", input: "a\x00b\x07c", want: "abc"},
		{name: "keeps entities as literal text", input: "Tom & Jerry", want: "Tom & Jerry"},
		{name: "keeps unicode", input: "téléphone 📱", want: "téléphone 📱"},
		{name: "empty input", input: "", want: ""},
		{name: "whitespace only", input: " \t\n ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mobilecontent.SanitizeText(tt.input))
		})
	}
}
