package ai

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logutil"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/model"
)

// Segment is a chunker output before it becomes a stored chunk row.
type Segment struct {
	Content        string
	WordCount      int
	ChunkType      model.ChunkType
	QuestionNumber int
	Position       int
}

type Chunker struct {
	maxTokens     int
	overlapTokens int
}

func NewChunker(maxTokens, overlapTokens int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 400
	}
	if overlapTokens <= 0 {
		overlapTokens = 80
	}
	return &Chunker{maxTokens: maxTokens, overlapTokens: overlapTokens}
}

// Exercise headings in study material, e.g. "Bài 3", "Câu 12.", "Exercise 4",
// "Problem 2:". The number is kept so prompts can reference it.
var exercisePattern = regexp.MustCompile(`(?i)^\s*(?:bài|câu|bài tập|exercise|problem|question)\s*(\d+)`)

// Chunk splits extracted markdown/plain text into embedding-sized segments,
// grouping blocks under their nearest heading and classifying exercise
// segments by heading or leading line.
func (c *Chunker) Chunk(ctx context.Context, content string) []Segment {
	logger := logutil.GetLogger(ctx)
	md := goldmark.New()
	reader := text.NewReader([]byte(content))
	doc := md.Parser().Parse(reader)

	var segments []Segment
	var currentParts []string
	var currentTokens int
	currentType := model.ChunkTypeTheory
	currentQuestion := 0
	currentHeading := ""
	position := 0

	flush := func() {
		if len(currentParts) == 0 {
			return
		}
		body := strings.Join(currentParts, "\n\n")
		if currentHeading != "" {
			body = currentHeading + "\n" + body
		}
		segments = append(segments, Segment{
			Content:        body,
			WordCount:      len(strings.Fields(body)),
			ChunkType:      currentType,
			QuestionNumber: currentQuestion,
			Position:       position,
		})
		position++

		// Carry a small tail over into the next segment so sentence
		// boundaries are not lost between neighbours.
		if currentType == model.ChunkTypeTheory && len(currentParts) > 1 {
			overlap := 0
			var tail []string
			for i := len(currentParts) - 1; i >= 0; i-- {
				t := estimateTokens(currentParts[i])
				if overlap+t > c.overlapTokens {
					break
				}
				overlap += t
				tail = append([]string{currentParts[i]}, tail...)
			}
			currentParts = tail
			currentTokens = overlap
		} else {
			currentParts = nil
			currentTokens = 0
		}
		currentType = model.ChunkTypeTheory
		currentQuestion = 0
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		switch n := node.(type) {
		case *ast.Heading:
			heading := string(n.Text(reader.Source()))
			if n.Level <= 2 || exercisePattern.MatchString(heading) {
				flush()
				currentParts = nil
				currentTokens = 0
				currentHeading = heading
				if num, ok := parseExercise(heading); ok {
					currentType = model.ChunkTypeExercise
					currentQuestion = num
				}
			} else {
				currentParts = append(currentParts, heading)
				currentTokens += estimateTokens(heading)
			}
		default:
			txt := extractText(node, reader.Source())
			if txt == "" {
				continue
			}
			if num, ok := parseExercise(txt); ok && currentTokens == 0 {
				currentType = model.ChunkTypeExercise
				currentQuestion = num
			}
			tokens := estimateTokens(txt)
			if currentTokens+tokens > c.maxTokens {
				flush()
			}
			currentParts = append(currentParts, txt)
			currentTokens += tokens
		}
	}
	flush()
	logger.Debug("chunking completed", zap.Int("segments", len(segments)), zap.Int("size", len(content)))
	return segments
}

func parseExercise(line string) (int, bool) {
	m := exercisePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	num, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return num, true
}

func estimateTokens(text string) int {
	// Roughly one token per word for Latin text, one per rune beyond ASCII.
	count := 0
	for _, r := range text {
		if r > 127 {
			count++
		}
	}
	count += len(strings.Fields(text))
	if count == 0 && len(text) > 0 {
		return 1
	}
	return count
}

func extractText(n ast.Node, source []byte) string {
	var sb strings.Builder
	ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if node.Kind() == ast.KindText {
			sb.Write(node.(*ast.Text).Segment.Value(source))
			sb.WriteByte(' ')
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
