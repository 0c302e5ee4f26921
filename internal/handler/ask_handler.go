package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ndgo/studybot/internal/pkg/errcode"
	"github.com/ndgo/studybot/internal/pkg/response"
	"github.com/ndgo/studybot/internal/retrieval"
	"github.com/ndgo/studybot/internal/service"
)

type AskHandler struct {
	ask *service.AskService
}

func NewAskHandler(ask *service.AskService) *AskHandler {
	return &AskHandler{ask: ask}
}

type askRequest struct {
	Question     string `json:"question"`
	SubjectID    string `json:"subject_id"`
	VideoContext bool   `json:"video_context"`
}

type askSource struct {
	ChunkID    int64   `json:"chunk_id"`
	Origin     string  `json:"origin"`
	Similarity float64 `json:"similarity"`
	IsExercise bool    `json:"is_exercise"`
}

type askResponse struct {
	Answer    string      `json:"answer"`
	ModelUsed string      `json:"model_used"`
	Fallback  bool        `json:"fallback"`
	Sources   []askSource `json:"sources"`
}

func (h *AskHandler) Ask(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.ask.Ask(c.Request.Context(), service.AskRequest{
		Question:     req.Question,
		SubjectID:    req.SubjectID,
		UserID:       getUserID(c),
		SessionID:    getSessionID(c),
		VideoContext: req.VideoContext,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, askResponse{
		Answer:    result.Content,
		ModelUsed: result.ModelUsed,
		Fallback:  result.Fallback,
		Sources:   toAskSources(result.Sources),
	})
}

func toAskSources(results []retrieval.Result) []askSource {
	sources := make([]askSource, 0, len(results))
	for _, r := range results {
		sources = append(sources, askSource{
			ChunkID:    r.ChunkID,
			Origin:     string(r.Origin),
			Similarity: r.Similarity,
			IsExercise: r.IsExercise,
		})
	}
	return sources
}
