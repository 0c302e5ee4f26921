package repo

import (
	"context"
	"fmt"

	"github.com/ndgo/studybot/internal/index"
	"github.com/ndgo/studybot/internal/model"
)

// ChunkStore unifies the three origin tables at read time. It is the system
// of record; the vector index is a disposable cache derived from it.
type ChunkStore struct {
	permanent  *PermanentChunkRepo
	temporary  *TemporaryChunkRepo
	transcript *TranscriptChunkRepo
}

func NewChunkStore(permanent *PermanentChunkRepo, temporary *TemporaryChunkRepo, transcript *TranscriptChunkRepo) *ChunkStore {
	return &ChunkStore{permanent: permanent, temporary: temporary, transcript: transcript}
}

// ListEntries implements index.Source: every chunk with an embedding, across
// all origins, most recent first.
func (s *ChunkStore) ListEntries(ctx context.Context) ([]index.Entry, error) {
	var entries []index.Entry

	temps, err := s.temporary.ListEmbedded(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range temps {
		entries = append(entries, index.Entry{
			ChunkID:     c.ID,
			DocumentID:  c.DocumentID,
			Origin:      model.OriginTemporary,
			SubjectID:   c.SubjectID,
			OwnerUserID: c.UserID,
			SessionID:   c.SessionID,
			IsExercise:  c.ChunkType == model.ChunkTypeExercise,
			CreatedAt:   c.CreatedAt,
			Vector:      c.Embedding,
		})
	}

	perms, err := s.permanent.ListEmbedded(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range perms {
		entries = append(entries, index.Entry{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Origin:     model.OriginPermanent,
			SubjectID:  c.SubjectID,
			IsExercise: c.ChunkType == model.ChunkTypeExercise,
			CreatedAt:  c.CreatedAt,
			Vector:     c.Embedding,
		})
	}

	trans, err := s.transcript.ListEmbedded(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range trans {
		entries = append(entries, index.Entry{
			ChunkID:    c.ID,
			DocumentID: c.VideoID,
			Origin:     model.OriginTranscript,
			SubjectID:  c.SubjectID,
			IsExercise: c.ChunkType == model.ChunkTypeExercise,
			CreatedAt:  c.CreatedAt,
			Vector:     c.Embedding,
		})
	}
	return entries, nil
}

// PendingChunk is a chunk awaiting its embedding.
type PendingChunk struct {
	Origin  model.Origin
	ChunkID int64
	Content string
}

// ListPending returns chunks without embeddings across all origins, capped
// at limit per origin, for the backfill job.
func (s *ChunkStore) ListPending(ctx context.Context, limit int) ([]PendingChunk, error) {
	var pending []PendingChunk

	temps, err := s.temporary.ListMissingEmbedding(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range temps {
		pending = append(pending, PendingChunk{Origin: model.OriginTemporary, ChunkID: c.ID, Content: c.Content})
	}

	perms, err := s.permanent.ListMissingEmbedding(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range perms {
		pending = append(pending, PendingChunk{Origin: model.OriginPermanent, ChunkID: c.ID, Content: c.Content})
	}

	trans, err := s.transcript.ListMissingEmbedding(ctx, limit)
	if err != nil {
		return nil, err
	}
	for _, c := range trans {
		pending = append(pending, PendingChunk{Origin: model.OriginTranscript, ChunkID: c.ID, Content: c.Content})
	}
	return pending, nil
}

// AttachEmbedding dispatches to the origin table.
func (s *ChunkStore) AttachEmbedding(ctx context.Context, origin model.Origin, chunkID int64, vec []float32, embedModel string) error {
	switch origin {
	case model.OriginPermanent:
		return s.permanent.AttachEmbedding(ctx, chunkID, vec, embedModel)
	case model.OriginTemporary:
		return s.temporary.AttachEmbedding(ctx, chunkID, vec, embedModel)
	case model.OriginTranscript:
		return s.transcript.AttachEmbedding(ctx, chunkID, vec, embedModel)
	default:
		return fmt.Errorf("unknown chunk origin: %s", origin)
	}
}

// Get fetches a chunk by origin for result re-validation. A missing row
// surfaces as ErrNotFound, which the retrieval engine silently drops.
func (s *ChunkStore) Get(ctx context.Context, origin model.Origin, chunkID int64) (model.Chunk, error) {
	switch origin {
	case model.OriginPermanent:
		return s.permanent.Get(ctx, chunkID)
	case model.OriginTemporary:
		return s.temporary.Get(ctx, chunkID)
	case model.OriginTranscript:
		return s.transcript.Get(ctx, chunkID)
	default:
		return nil, fmt.Errorf("unknown chunk origin: %s", origin)
	}
}
