package retrieval

import (
	"regexp"
	"strings"
)

// Deictic/demonstrative phrasing: the student is pointing at "the thing I
// just gave you" instead of naming a topic. Vietnamese first, English second.
// The Vietnamese alternations carry no \b anchors: Go's word boundary is
// ASCII-only and never fires next to letters like đ or ó.
var deicticPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(cái này|cái đó|cái kia|bài này|bài đó|file này|tài liệu này|cái vừa|vừa nãy|vừa gửi|vừa up|mới gửi|mới up)`),
	regexp.MustCompile(`(?i)\b(this|that|these|those|just now|just sent|just uploaded|the file|the document|the upload)\b`),
	regexp.MustCompile(`(?i)^(giải thích|tóm tắt|explain|summarize|summarise)\s*(cái|bài|này|đi|giùm|hộ|it)?\s*$`),
}

// Topic nouns that anchor a query to a subject. Their presence overrides the
// deictic signal: "explain this theorem about đạo hàm" is not vague.
var specificNounPattern = regexp.MustCompile(`(?i)(định lý|định nghĩa|công thức|phương trình|hàm số|đạo hàm|tích phân|nguyên hàm|hình học|vectơ|xác suất|chương)|\b(theorem|formula|equation|function|derivative|integral|geometry|vector|probability|chapter|lesson)\b`)

// ClassifyVague reports whether the query leans on demonstrative/deictic
// terms without naming a concrete topic. Vague queries most likely refer to
// something the user just uploaded, so recency weighting widens for them.
func ClassifyVague(query string) bool {
	q := strings.TrimSpace(query)
	if q == "" {
		return false
	}
	if specificNounPattern.MatchString(q) {
		return false
	}
	for _, p := range deicticPatterns {
		if p.MatchString(q) {
			return true
		}
	}
	return false
}
