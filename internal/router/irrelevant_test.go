package router

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsIrrelevant(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"empty", "", true},
		{"whitespace", "   ", true},
		{"pure number", "12345", true},
		{"arithmetic fragment", "1 + 1", true},
		{"single rune", "a", true},
		{"single vietnamese rune", "ư", true},
		{"repeated vowels", "aaaa", true},
		{"repeated vowels long", "eeeeeeee", true},
		{"repeated vowels uppercase", "AAAA", true},
		{"repeated vietnamese vowel", "ưưư", true},
		{"repeated consonant kept", "zzzz", false},
		{"two vowels only", "aa", false},
		{"mixed repeats", "aaab", false},
		{"filler ok", "ok", true},
		{"filler uppercase", "OK", true},
		{"filler vietnamese", "dạ", true},
		{"filler greeting", "xin chào", true},
		{"filler test", "test", true},
		{"real question", "tính chu vi hình tròn bán kính 3cm", false},
		{"short but topical", "ADN là gì", false},
		{"english question", "what is gravity", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsIrrelevant(tt.query))
		})
	}
}
