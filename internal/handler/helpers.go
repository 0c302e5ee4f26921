package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/middleware"
	"github.com/ndgo/studybot/internal/pkg/errcode"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
	"github.com/ndgo/studybot/internal/pkg/response"
)

func getUserID(c *gin.Context) int64 {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(int64)
	return userID
}

func getSessionID(c *gin.Context) int64 {
	value, _ := c.Get(middleware.ContextSessionIDKey)
	sessionID, _ := value.(int64)
	return sessionID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID, _ := c.Get("request_id")
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.Any("request_id", requestID),
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Int64("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, errcode.ErrForbidden, "forbidden")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrEmbeddingUnavailable),
		errors.Is(err, appErr.ErrModelBackend):
		response.Error(c, errcode.ErrAIUnavailable, "ai backend unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
