package handler

import (
	"bytes"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ndgo/studybot/internal/filestore"
	"github.com/ndgo/studybot/internal/pkg/errcode"
	"github.com/ndgo/studybot/internal/pkg/response"
	"github.com/ndgo/studybot/internal/service"
)

// 16 MiB cap on a single temporary upload.
const maxUploadBytes = 16 << 20

type IngestHandler struct {
	ingest *service.IngestService
	files  filestore.Store
}

func NewIngestHandler(ingest *service.IngestService, files filestore.Store) *IngestHandler {
	return &IngestHandler{ingest: ingest, files: files}
}

type createDocumentRequest struct {
	Title     string `json:"title"`
	SubjectID string `json:"subject_id"`
	Text      string `json:"text"`
}

func (h *IngestHandler) CreateDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	docID, err := h.ingest.IngestDocument(c.Request.Context(), service.IngestDocumentRequest{
		Title:     req.Title,
		SubjectID: req.SubjectID,
		Text:      req.Text,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"document_id": docID})
}

// Upload accepts a multipart temporary upload. The raw file lands in the
// file store under a generated key; the extracted text comes either from the
// "text" form field (when an extraction step ran client-side) or from the
// file body itself for plain text and markdown.
func (h *IngestHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file is required")
		return
	}
	if file.Size > maxUploadBytes {
		response.Error(c, errcode.ErrInvalid, "file too large")
		return
	}
	subjectID := c.PostForm("subject_id")
	if subjectID == "" {
		response.Error(c, errcode.ErrInvalid, "subject_id is required")
		return
	}

	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "failed to open file")
		return
	}
	defer opened.Close()
	body, err := io.ReadAll(io.LimitReader(opened, maxUploadBytes+1))
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "failed to read file")
		return
	}
	if len(body) > maxUploadBytes {
		response.Error(c, errcode.ErrInvalid, "file too large")
		return
	}

	key := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	if err := h.files.Save(c.Request.Context(), key, bytes.NewReader(body)); err != nil {
		response.Error(c, errcode.ErrUploadFailed, "failed to store file")
		return
	}

	text := c.PostForm("text")
	if text == "" {
		text = string(body)
	}
	docID, err := h.ingest.IngestTemporary(c.Request.Context(), service.IngestTemporaryRequest{
		UserID:    getUserID(c),
		SessionID: getSessionID(c),
		Title:     file.Filename,
		SubjectID: subjectID,
		Text:      text,
		FileKey:   key,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"document_id": docID,
		"file_key":    key,
		"name":        file.Filename,
	})
}

type createVideoRequest struct {
	Title     string `json:"title"`
	SubjectID string `json:"subject_id"`
}

func (h *IngestHandler) CreateVideo(c *gin.Context) {
	var req createVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	videoID, err := h.ingest.RegisterVideo(c.Request.Context(), req.Title, req.SubjectID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"video_id": videoID})
}

type transcriptRequest struct {
	Text string `json:"text"`
}

func (h *IngestHandler) AttachTranscript(c *gin.Context) {
	videoID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || videoID <= 0 {
		response.Error(c, errcode.ErrInvalid, "invalid video id")
		return
	}
	var req transcriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.ingest.IngestTranscript(c.Request.Context(), service.IngestTranscriptRequest{
		VideoID: videoID,
		Text:    req.Text,
	}); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"video_id": videoID})
}
