package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubEmbedder struct {
	name  string
	vec   []float32
	err   error
	calls int
}

func (s *stubEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func (s *stubEmbedder) ModelName() string { return s.name }

func TestGroupEmbedder_FallsBackOnFailure(t *testing.T) {
	primary := &stubEmbedder{name: "primary", err: errors.New("quota exceeded")}
	secondary := &stubEmbedder{name: "secondary", vec: []float32{1, 0}}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "primary", Embedder: primary},
		{Name: "secondary", Embedder: secondary},
	})

	vec, err := group.Embed(context.Background(), "text", TaskTypeQuery)
	require.NoError(t, err)
	require.Equal(t, []float32{1, 0}, vec)
	require.Equal(t, 1, primary.calls)
	require.Equal(t, 1, secondary.calls)
}

func TestGroupEmbedder_PrimarySuccessSkipsFallback(t *testing.T) {
	primary := &stubEmbedder{name: "primary", vec: []float32{0, 1}}
	secondary := &stubEmbedder{name: "secondary", vec: []float32{1, 0}}
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "primary", Embedder: primary},
		{Name: "secondary", Embedder: secondary},
	})

	vec, err := group.Embed(context.Background(), "text", TaskTypeDocument)
	require.NoError(t, err)
	require.Equal(t, []float32{0, 1}, vec)
	require.Zero(t, secondary.calls)
}

func TestGroupEmbedder_AllFailingReturnsLastError(t *testing.T) {
	wantErr := errors.New("second failure")
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "a", Embedder: &stubEmbedder{err: errors.New("first failure")}},
		{Name: "b", Embedder: &stubEmbedder{err: wantErr}},
	})

	_, err := group.Embed(context.Background(), "text", TaskTypeQuery)
	require.ErrorIs(t, err, wantErr)
}

func TestGroupEmbedder_ModelName(t *testing.T) {
	group := NewGroupEmbedder([]EmbedderEntry{
		{Name: "a", Embedder: &stubEmbedder{}},
		{Name: "b", Embedder: &stubEmbedder{}},
	})
	require.Equal(t, "a|b", group.ModelName())

	require.Nil(t, NewGroupEmbedder(nil))
}
