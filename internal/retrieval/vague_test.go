package retrieval

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyVague(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"vietnamese deictic", "giải thích cái này giúp em", true},
		{"vietnamese just uploaded", "tóm tắt file này", true},
		{"vietnamese recent reference", "bài vừa gửi nói về gì", true},
		{"english deictic", "can you explain this", true},
		{"english upload reference", "summarize the document", true},
		{"bare imperative", "explain", true},
		{"bare imperative vietnamese", "giải thích đi", true},
		{"specific topic vietnamese", "giải thích định lý này", false},
		{"specific topic english", "explain this theorem", false},
		{"named concept", "đạo hàm của hàm số là gì", false},
		{"plain topical question", "cách tính chu vi hình tròn", false},
		{"empty", "", false},
		{"whitespace", "   ", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ClassifyVague(tt.query))
		})
	}
}
