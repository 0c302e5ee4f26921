package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ndgo/studybot/internal/model"
)

func TestChunk_ExerciseHeading(t *testing.T) {
	c := NewChunker(0, 0)
	content := "## Bài 1\n\nGiải phương trình x + 2 = 5.\n"

	segments := c.Chunk(context.Background(), content)
	require.Len(t, segments, 1)
	require.Equal(t, model.ChunkTypeExercise, segments[0].ChunkType)
	require.Equal(t, 1, segments[0].QuestionNumber)
	require.Contains(t, segments[0].Content, "Bài 1")
	require.Contains(t, segments[0].Content, "Giải phương trình")
}

func TestChunk_TheoryHeading(t *testing.T) {
	c := NewChunker(0, 0)
	content := "# Đại số\n\nMột phương trình bậc nhất có dạng ax + b = 0.\n"

	segments := c.Chunk(context.Background(), content)
	require.Len(t, segments, 1)
	require.Equal(t, model.ChunkTypeTheory, segments[0].ChunkType)
	require.Zero(t, segments[0].QuestionNumber)
	require.True(t, strings.HasPrefix(segments[0].Content, "Đại số"))
}

func TestChunk_ExerciseLeadingLineWithoutHeading(t *testing.T) {
	c := NewChunker(0, 0)
	content := "Câu 12. Tìm nghiệm của phương trình.\n"

	segments := c.Chunk(context.Background(), content)
	require.Len(t, segments, 1)
	require.Equal(t, model.ChunkTypeExercise, segments[0].ChunkType)
	require.Equal(t, 12, segments[0].QuestionNumber)
}

func TestChunk_HeadingSeparatesSegments(t *testing.T) {
	c := NewChunker(0, 0)
	content := "## Exercise 1\n\nFirst body.\n\n## Exercise 2\n\nSecond body.\n"

	segments := c.Chunk(context.Background(), content)
	require.Len(t, segments, 2)
	require.Equal(t, 1, segments[0].QuestionNumber)
	require.Equal(t, 2, segments[1].QuestionNumber)
	require.Equal(t, 0, segments[0].Position)
	require.Equal(t, 1, segments[1].Position)
}

func TestChunk_SplitsAtTokenBudgetWithOverlap(t *testing.T) {
	c := NewChunker(10, 3)
	paragraphs := []string{
		"alpha beta gamma",
		"delta epsilon zeta",
		"eta theta iota",
		"kappa lambda mu",
	}
	content := strings.Join(paragraphs, "\n\n")

	segments := c.Chunk(context.Background(), content)
	require.Len(t, segments, 2)
	// the trailing paragraph of the first segment is carried into the second
	require.Contains(t, segments[0].Content, "eta theta iota")
	require.True(t, strings.HasPrefix(segments[1].Content, "eta theta iota"))
	require.Contains(t, segments[1].Content, "kappa lambda mu")
}

func TestChunk_EmptyInput(t *testing.T) {
	c := NewChunker(0, 0)
	require.Empty(t, c.Chunk(context.Background(), ""))
	require.Empty(t, c.Chunk(context.Background(), "   \n"))
}

func TestParseExercise(t *testing.T) {
	tests := []struct {
		line    string
		num     int
		matched bool
	}{
		{"Bài 3", 3, true},
		{"bài tập 7: hình học", 7, true},
		{"Câu 12.", 12, true},
		{"Exercise 4", 4, true},
		{"Problem 2: prove it", 2, true},
		{"Question 9", 9, true},
		{"Chương 1", 0, false},
		{"The exercise was hard", 0, false},
	}
	for _, tt := range tests {
		num, ok := parseExercise(tt.line)
		require.Equal(t, tt.matched, ok, "line %q", tt.line)
		require.Equal(t, tt.num, num, "line %q", tt.line)
	}
}

func TestEstimateTokens(t *testing.T) {
	require.Equal(t, 3, estimateTokens("one two three"))
	// each Vietnamese diacritic rune counts on top of the word count
	require.Greater(t, estimateTokens("phương trình bậc hai"), 4)
	require.Equal(t, 0, estimateTokens(""))
	require.Equal(t, 1, estimateTokens("!"))
}
