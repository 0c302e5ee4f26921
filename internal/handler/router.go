package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ndgo/studybot/internal/middleware"
)

type RouterDeps struct {
	Ask       *AskHandler
	Ingest    *IngestHandler
	JWTSecret []byte
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.POST("/ask", deps.Ask.Ask)
	authGroup.POST("/documents", deps.Ingest.CreateDocument)
	authGroup.POST("/uploads", deps.Ingest.Upload)
	authGroup.POST("/videos", deps.Ingest.CreateVideo)
	authGroup.POST("/videos/:id/transcript", deps.Ingest.AttachTranscript)
}
