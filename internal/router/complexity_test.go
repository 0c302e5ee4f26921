package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplexityScore(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"proof by induction vietnamese", "Chứng minh bằng quy nạp rằng tổng n số lẻ đầu tiên bằng n bình phương", 3},
		{"prove english", "Prove that the sum is even", 3},
		{"math symbols", `Tính \int x^2 dx`, 3},
		{"why question vietnamese", "tại sao nước sôi ở 100 độ", 2},
		{"compare english", "compare mitosis and meiosis", 2},
		{"solve request", "giải bài 5 trang 20", 1},
		{"definition vietnamese", "quang hợp là gì", -2},
		{"definition english", "what is photosynthesis", -2},
		{"neutral chat", "hôm nay học môn nào", 0},
		{"math plus definition cancels", "đạo hàm là gì", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ComplexityScore(tt.query))
		})
	}
}

func TestComplexityScore_LengthAndQuestionMarkBonus(t *testing.T) {
	long := strings.Repeat("hãy phân tích đoạn văn sau đây cho em ", 8)
	require.Greater(t, len(long), 200)
	// reasoning (+2) plus length bonus (+1)
	require.Equal(t, 3, ComplexityScore(long))

	require.Equal(t, 3, ComplexityScore("tại sao? như thế nào? rồi sao nữa?"))
}

func TestIsComplex(t *testing.T) {
	require.True(t, IsComplex("Chứng minh bằng quy nạp rằng dãy này hội tụ"))
	require.True(t, IsComplex("why does the integral diverge"))
	require.False(t, IsComplex("what is a noun"))
	require.False(t, IsComplex("giải bài 3 giúp em"))
}
