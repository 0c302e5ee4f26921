package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndgo/studybot/internal/model"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
	"github.com/ndgo/studybot/internal/retrieval"
	"github.com/ndgo/studybot/internal/router"
)

type fakeRetriever struct {
	results []retrieval.Result
	err     error
	lastQ   retrieval.Query
	calls   int
}

func (f *fakeRetriever) Retrieve(ctx context.Context, q retrieval.Query) ([]retrieval.Result, error) {
	f.calls++
	f.lastQ = q
	return f.results, f.err
}

type fakeRouter struct {
	answer     *router.Answer
	err        error
	lastPrompt string
	calls      int
}

func (f *fakeRouter) Route(ctx context.Context, query string, prompt string) (*router.Answer, error) {
	f.calls++
	f.lastPrompt = prompt
	return f.answer, f.err
}

func TestAsk_HappyPath(t *testing.T) {
	retriever := &fakeRetriever{results: []retrieval.Result{
		{ChunkID: 1, Content: "phương trình bậc hai có dạng ax^2+bx+c=0", Origin: model.OriginTemporary, IsExercise: true, CreatedAt: time.Now()},
		{ChunkID: 2, Content: "đồ thị hàm bậc hai là parabol", Origin: model.OriginPermanent, CreatedAt: time.Now()},
	}}
	modelRouter := &fakeRouter{answer: &router.Answer{Content: "the answer", ModelUsed: "fast-model"}}
	svc := NewAskService(retriever, modelRouter)

	resp, err := svc.Ask(context.Background(), AskRequest{
		Question:  "cách giải phương trình bậc hai",
		SubjectID: "math",
		UserID:    7,
		SessionID: 60,
	})
	require.NoError(t, err)
	require.Equal(t, "the answer", resp.Content)
	require.Equal(t, "fast-model", resp.ModelUsed)
	require.Len(t, resp.Sources, 2)

	require.Equal(t, int64(7), retriever.lastQ.UserID)
	require.Equal(t, int64(60), retriever.lastQ.SessionID)
	require.Equal(t, "math", retriever.lastQ.SubjectID)

	require.Contains(t, modelRouter.lastPrompt, "STUDY MATERIAL")
	require.Contains(t, modelRouter.lastPrompt, "student upload, exercise")
	require.Contains(t, modelRouter.lastPrompt, "course document")
	require.Contains(t, modelRouter.lastPrompt, "QUESTION:")
}

func TestAsk_IrrelevantQueryShortCircuits(t *testing.T) {
	retriever := &fakeRetriever{}
	modelRouter := &fakeRouter{}
	svc := NewAskService(retriever, modelRouter)

	resp, err := svc.Ask(context.Background(), AskRequest{Question: "haha", SubjectID: "math", UserID: 7})
	require.NoError(t, err)
	require.Equal(t, router.RedirectAnswer, resp.Content)
	require.Equal(t, "none", resp.ModelUsed)
	require.Zero(t, retriever.calls)
	require.Zero(t, modelRouter.calls)
}

func TestAsk_NoRetrievedContextStillAnswers(t *testing.T) {
	retriever := &fakeRetriever{}
	modelRouter := &fakeRouter{answer: &router.Answer{Content: "general answer", ModelUsed: "fast-model"}}
	svc := NewAskService(retriever, modelRouter)

	resp, err := svc.Ask(context.Background(), AskRequest{Question: "quang hợp là gì", SubjectID: "biology", UserID: 7})
	require.NoError(t, err)
	require.Equal(t, "general answer", resp.Content)
	require.Empty(t, resp.Sources)
	require.NotContains(t, modelRouter.lastPrompt, "STUDY MATERIAL")
	require.Contains(t, modelRouter.lastPrompt, "No study material matched")
}

func TestAsk_Validation(t *testing.T) {
	svc := NewAskService(&fakeRetriever{}, &fakeRouter{})

	_, err := svc.Ask(context.Background(), AskRequest{Question: "  ", SubjectID: "math"})
	require.ErrorIs(t, err, appErr.ErrInvalid)

	_, err = svc.Ask(context.Background(), AskRequest{Question: "câu hỏi thật", SubjectID: ""})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestAsk_RetrievalErrorAborts(t *testing.T) {
	retriever := &fakeRetriever{err: appErr.ErrEmbeddingUnavailable}
	modelRouter := &fakeRouter{}
	svc := NewAskService(retriever, modelRouter)

	_, err := svc.Ask(context.Background(), AskRequest{Question: "quang hợp là gì", SubjectID: "biology", UserID: 7})
	require.ErrorIs(t, err, appErr.ErrEmbeddingUnavailable)
	require.Zero(t, modelRouter.calls)
}
