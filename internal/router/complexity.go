package router

import (
	"regexp"
	"strings"
)

// Complexity classification is a weighted pattern match over the query text.
// Mathematical phrasing weighs heaviest, definitional/listing phrasing pulls
// the score down. Score >= 2 routes to the deep backend.

const complexityCutoff = 2

type patternCategory struct {
	name     string
	weight   int
	patterns []*regexp.Regexp
}

var categories = []patternCategory{
	{
		name:   "mathematical",
		weight: 3,
		patterns: []*regexp.Regexp{
			// no \b on the Vietnamese alternations: Go's word boundary is
			// ASCII-only and never fires next to letters like đ or ì
			regexp.MustCompile(`(?i)(chứng minh|quy nạp|đạo hàm|tích phân|nguyên hàm|giới hạn|phương trình|bất đẳng thức)`),
			regexp.MustCompile(`(?i)\b(prove|induction|derivative|integral|limit|equation|inequality|theorem)\b`),
			regexp.MustCompile(`[∫∑∏√∂∆]|\\frac|\\int|\\sum`),
		},
	},
	{
		name:   "reasoning",
		weight: 2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(tại sao|vì sao|so sánh|phân tích|đánh giá|suy luận)`),
			regexp.MustCompile(`(?i)\b(why|compare|analyze|analyse|evaluate|reason about|justify)\b`),
		},
	},
	{
		name:   "problemSolving",
		weight: 1,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(giải bài|giải giúp|cách giải|tính toán|tìm nghiệm|bài toán)`),
			regexp.MustCompile(`(?i)\b(solve|calculate|compute|find the|work out)\b`),
		},
	},
	{
		name:   "simple",
		weight: -2,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(là gì|định nghĩa của|liệt kê|kể tên)`),
			regexp.MustCompile(`(?i)\b(what is|what are|define|list the|name the)\b`),
		},
	},
}

// ComplexityScore sums category weights per matched pattern, plus +1 for
// messages over 200 chars and +1 for more than two question marks.
func ComplexityScore(query string) int {
	score := 0
	for _, cat := range categories {
		for _, p := range cat.patterns {
			if p.MatchString(query) {
				score += cat.weight
			}
		}
	}
	if len(query) > 200 {
		score++
	}
	if strings.Count(query, "?") > 2 {
		score++
	}
	return score
}

func IsComplex(query string) bool {
	return ComplexityScore(query) >= complexityCutoff
}
