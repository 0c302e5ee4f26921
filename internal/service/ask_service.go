package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/model"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
	"github.com/ndgo/studybot/internal/retrieval"
	"github.com/ndgo/studybot/internal/router"
)

type Retriever interface {
	Retrieve(ctx context.Context, q retrieval.Query) ([]retrieval.Result, error)
}

type ModelRouter interface {
	Route(ctx context.Context, query string, prompt string) (*router.Answer, error)
}

type AskRequest struct {
	Question     string
	SubjectID    string
	UserID       int64
	SessionID    int64
	VideoContext bool
}

type AskResponse struct {
	Content   string
	ModelUsed string
	Fallback  bool
	Sources   []retrieval.Result
}

// AskService runs one chat turn: noise check, context retrieval, prompt
// assembly, model routing. Retrieval-layer errors abort the turn; lifecycle
// sweeps run out-of-band and never surface here.
type AskService struct {
	retriever Retriever
	router    ModelRouter
}

func NewAskService(retriever Retriever, modelRouter ModelRouter) *AskService {
	return &AskService{retriever: retriever, router: modelRouter}
}

func (s *AskService) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" || req.SubjectID == "" {
		return nil, appErr.ErrInvalid
	}
	if router.IsIrrelevant(question) {
		return &AskResponse{Content: router.RedirectAnswer, ModelUsed: "none"}, nil
	}

	results, err := s.retriever.Retrieve(ctx, retrieval.Query{
		Text:         question,
		SubjectID:    req.SubjectID,
		UserID:       req.UserID,
		SessionID:    req.SessionID,
		VideoContext: req.VideoContext,
	})
	if err != nil {
		return nil, err
	}

	prompt := buildPrompt(question, req.SubjectID, results)
	answer, err := s.router.Route(ctx, question, prompt)
	if err != nil {
		return nil, err
	}
	logutil.GetLogger(ctx).Info("ask turn completed",
		zap.Int64("user_id", req.UserID),
		zap.String("subject_id", req.SubjectID),
		zap.String("model", answer.ModelUsed),
		zap.Bool("fallback", answer.Fallback),
		zap.Int("sources", len(results)),
	)
	return &AskResponse{
		Content:   answer.Content,
		ModelUsed: answer.ModelUsed,
		Fallback:  answer.Fallback,
		Sources:   results,
	}, nil
}

func buildPrompt(question, subjectID string, results []retrieval.Result) string {
	var sb strings.Builder
	sb.WriteString("You are a patient tutor for subject ")
	sb.WriteString(subjectID)
	sb.WriteString(". Answer in the same language as the question, using the study material below when it is relevant.\n")
	if len(results) > 0 {
		sb.WriteString("\nSTUDY MATERIAL:\n")
		for i, r := range results {
			label := originLabel(r.Origin)
			if r.IsExercise {
				label += ", exercise"
			}
			fmt.Fprintf(&sb, "[%d] (%s)\n%s\n\n", i+1, label, r.Content)
		}
	} else {
		sb.WriteString("\nNo study material matched; answer from general knowledge of the subject.\n")
	}
	sb.WriteString("QUESTION:\n")
	sb.WriteString(question)
	return sb.String()
}

func originLabel(origin model.Origin) string {
	switch origin {
	case model.OriginTemporary:
		return "student upload"
	case model.OriginTranscript:
		return "video transcript"
	default:
		return "course document"
	}
}
