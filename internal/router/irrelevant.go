package router

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// RedirectAnswer is returned verbatim for noise queries; they never reach
// retrieval or a model backend.
const RedirectAnswer = "Bạn hãy đặt một câu hỏi liên quan đến bài học nhé! / Please ask a question related to your study material."

var (
	pureNumberPattern = regexp.MustCompile(`^[\d\s.,+-]+$`)
	noiseVowels       = map[rune]struct{}{
		'a': {}, 'e': {}, 'i': {}, 'o': {}, 'u': {}, 'y': {}, 'ư': {},
	}
	fillerWords    = map[string]struct{}{}
	fillerWordList = []string{
		"ok", "oke", "okay", "hmm", "hm", "uh", "uhm", "um",
		"haha", "hihi", "hehe", "huhu", "lol",
		"alo", "hello", "hi", "chào", "xin chào",
		"ừ", "ờ", "à", "ơ", "vâng", "dạ",
		"test", "testing", "abc", "xyz",
	}
)

func init() {
	for _, w := range fillerWordList {
		fillerWords[w] = struct{}{}
	}
}

// IsIrrelevant rejects queries that cannot be on-topic: pure numbers, single
// characters, repeated-vowel noise and chat filler, saving an embedding call
// and a model call.
func IsIrrelevant(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if utf8.RuneCountInString(q) == 1 {
		return true
	}
	if pureNumberPattern.MatchString(q) {
		return true
	}
	if isRepeatedVowelNoise(q) {
		return true
	}
	if _, ok := fillerWords[q]; ok {
		return true
	}
	return false
}

// isRepeatedVowelNoise matches "aaa", "eeee", "ưưư" and the like: three or
// more copies of the same vowel and nothing else. Done by hand since RE2 has
// no backreferences.
func isRepeatedVowelNoise(q string) bool {
	var first rune
	n := 0
	for _, r := range q {
		if n == 0 {
			first = r
		} else if r != first {
			return false
		}
		n++
	}
	if n < 3 {
		return false
	}
	_, ok := noiseVowels[first]
	return ok
}
