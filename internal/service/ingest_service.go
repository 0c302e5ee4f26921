package service

import (
	"context"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/ai"
	"github.com/ndgo/studybot/internal/model"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
	"github.com/ndgo/studybot/internal/repo"
)

// Invalidator is the index hook every store mutation must poke.
type Invalidator interface {
	Invalidate()
}

// IngestService turns extracted text from the OCR/PDF/DOCX/transcription
// collaborators into stored chunks. Embeddings are attached best-effort
// right away; failures leave the chunk unembedded for the backfill job.
type IngestService struct {
	chunker    *ai.Chunker
	embedder   ai.IEmbedder
	documents  *repo.DocumentRepo
	tempDocs   *repo.TempDocumentRepo
	videos     *repo.VideoRepo
	permanent  *repo.PermanentChunkRepo
	temporary  *repo.TemporaryChunkRepo
	transcript *repo.TranscriptChunkRepo
	idx        Invalidator
	timeout    time.Duration
}

func NewIngestService(
	chunker *ai.Chunker,
	embedder ai.IEmbedder,
	documents *repo.DocumentRepo,
	tempDocs *repo.TempDocumentRepo,
	videos *repo.VideoRepo,
	permanent *repo.PermanentChunkRepo,
	temporary *repo.TemporaryChunkRepo,
	transcript *repo.TranscriptChunkRepo,
	idx Invalidator,
	timeout time.Duration,
) *IngestService {
	return &IngestService{
		chunker:    chunker,
		embedder:   embedder,
		documents:  documents,
		tempDocs:   tempDocs,
		videos:     videos,
		permanent:  permanent,
		temporary:  temporary,
		transcript: transcript,
		idx:        idx,
		timeout:    timeout,
	}
}

type IngestDocumentRequest struct {
	Title     string
	SubjectID string
	Text      string
}

func (s *IngestService) IngestDocument(ctx context.Context, req IngestDocumentRequest) (int64, error) {
	if strings.TrimSpace(req.Text) == "" || req.SubjectID == "" {
		return 0, appErr.ErrInvalid
	}
	now := time.Now()
	docID, err := s.documents.Insert(ctx, &model.Document{
		Title:     req.Title,
		SubjectID: req.SubjectID,
		CreatedAt: now,
	})
	if err != nil {
		return 0, err
	}
	segments := s.chunker.Chunk(ctx, req.Text)
	for _, seg := range segments {
		id, err := s.permanent.Insert(ctx, &model.PermanentChunk{
			DocumentID:     docID,
			Content:        seg.Content,
			WordCount:      seg.WordCount,
			ChunkType:      seg.ChunkType,
			QuestionNumber: seg.QuestionNumber,
			CreatedAt:      now,
		})
		if err != nil {
			return 0, err
		}
		s.tryEmbed(ctx, model.OriginPermanent, id, seg.Content)
	}
	s.idx.Invalidate()
	return docID, nil
}

type IngestTemporaryRequest struct {
	UserID    int64
	SessionID int64
	Title     string
	SubjectID string
	Text      string
	FileKey   string
}

func (s *IngestService) IngestTemporary(ctx context.Context, req IngestTemporaryRequest) (int64, error) {
	if strings.TrimSpace(req.Text) == "" || req.SubjectID == "" || req.UserID == 0 {
		return 0, appErr.ErrInvalid
	}
	now := time.Now()
	docID, err := s.tempDocs.Insert(ctx, &model.TempDocument{
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Title:      req.Title,
		SubjectID:  req.SubjectID,
		FileKey:    req.FileKey,
		UploadedAt: now,
	})
	if err != nil {
		return 0, err
	}
	segments := s.chunker.Chunk(ctx, req.Text)
	for _, seg := range segments {
		id, err := s.temporary.Insert(ctx, &model.TemporaryChunk{
			DocumentID:     docID,
			UserID:         req.UserID,
			SessionID:      req.SessionID,
			Content:        seg.Content,
			WordCount:      seg.WordCount,
			ChunkType:      seg.ChunkType,
			QuestionNumber: seg.QuestionNumber,
			CreatedAt:      now,
		})
		if err != nil {
			return 0, err
		}
		s.tryEmbed(ctx, model.OriginTemporary, id, seg.Content)
	}
	s.idx.Invalidate()
	return docID, nil
}

type IngestTranscriptRequest struct {
	VideoID int64
	Text    string
}

func (s *IngestService) IngestTranscript(ctx context.Context, req IngestTranscriptRequest) error {
	if strings.TrimSpace(req.Text) == "" {
		return appErr.ErrInvalid
	}
	if _, err := s.videos.Get(ctx, req.VideoID); err != nil {
		return err
	}
	now := time.Now()
	segments := s.chunker.Chunk(ctx, req.Text)
	for _, seg := range segments {
		id, err := s.transcript.Insert(ctx, &model.TranscriptChunk{
			VideoID:        req.VideoID,
			Content:        seg.Content,
			WordCount:      seg.WordCount,
			ChunkType:      seg.ChunkType,
			QuestionNumber: seg.QuestionNumber,
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}
		s.tryEmbed(ctx, model.OriginTranscript, id, seg.Content)
	}
	s.idx.Invalidate()
	return nil
}

func (s *IngestService) RegisterVideo(ctx context.Context, title, subjectID string) (int64, error) {
	if subjectID == "" {
		return 0, appErr.ErrInvalid
	}
	return s.videos.Insert(ctx, &model.Video{
		Title:     title,
		SubjectID: subjectID,
		CreatedAt: time.Now(),
	})
}

// tryEmbed attaches an embedding inline so a fresh upload is searchable for
// the very next question. On failure the chunk stays unembedded; the
// backfill job picks it up.
func (s *IngestService) tryEmbed(ctx context.Context, origin model.Origin, chunkID int64, content string) {
	embedCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		embedCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	vec, err := s.embedder.Embed(embedCtx, content, ai.TaskTypeDocument)
	if err != nil {
		logutil.GetLogger(ctx).Warn("inline embedding failed, leaving for backfill",
			zap.String("origin", string(origin)),
			zap.Int64("chunk_id", chunkID),
			zap.Error(err),
		)
		return
	}
	var attachErr error
	switch origin {
	case model.OriginPermanent:
		attachErr = s.permanent.AttachEmbedding(ctx, chunkID, vec, s.embedder.ModelName())
	case model.OriginTemporary:
		attachErr = s.temporary.AttachEmbedding(ctx, chunkID, vec, s.embedder.ModelName())
	case model.OriginTranscript:
		attachErr = s.transcript.AttachEmbedding(ctx, chunkID, vec, s.embedder.ModelName())
	}
	if attachErr != nil {
		logutil.GetLogger(ctx).Warn("attach embedding failed",
			zap.String("origin", string(origin)),
			zap.Int64("chunk_id", chunkID),
			zap.Error(attachErr),
		)
	}
}
