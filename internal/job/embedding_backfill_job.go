package job

import (
	"context"

	"github.com/cenkalti/backoff/v4"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/ai"
	"github.com/ndgo/studybot/internal/model"
	"github.com/ndgo/studybot/internal/repo"
)

type PendingChunkSource interface {
	ListPending(ctx context.Context, limit int) ([]repo.PendingChunk, error)
	AttachEmbedding(ctx context.Context, origin model.Origin, chunkID int64, vec []float32, embedModel string) error
}

// EmbeddingBackfillJob embeds chunks whose inline embedding failed at ingest
// time. Each chunk gets a short retry budget; whatever still fails stays
// pending for the next run.
type EmbeddingBackfillJob struct {
	source    PendingChunkSource
	embedder  ai.IEmbedder
	idx       Invalidator
	batchSize int
}

func NewEmbeddingBackfillJob(source PendingChunkSource, embedder ai.IEmbedder, idx Invalidator, batchSize int) *EmbeddingBackfillJob {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &EmbeddingBackfillJob{source: source, embedder: embedder, idx: idx, batchSize: batchSize}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	pending, err := j.source.ListPending(ctx, j.batchSize)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	embedded := 0
	for _, chunk := range pending {
		vec, err := j.embed(ctx, chunk.Content)
		if err != nil {
			logger.Warn("backfill embedding failed, will retry next run",
				zap.String("origin", string(chunk.Origin)),
				zap.Int64("chunk_id", chunk.ChunkID),
				zap.Error(err),
			)
			continue
		}
		if err := j.source.AttachEmbedding(ctx, chunk.Origin, chunk.ChunkID, vec, j.embedder.ModelName()); err != nil {
			logger.Warn("backfill attach failed",
				zap.String("origin", string(chunk.Origin)),
				zap.Int64("chunk_id", chunk.ChunkID),
				zap.Error(err),
			)
			continue
		}
		embedded++
	}
	if embedded > 0 {
		j.idx.Invalidate()
		logger.Info("embedding backfill progressed",
			zap.Int("pending", len(pending)),
			zap.Int("embedded", embedded),
		)
	}
	return nil
}

func (j *EmbeddingBackfillJob) embed(ctx context.Context, content string) ([]float32, error) {
	var vec []float32
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	err := backoff.Retry(func() error {
		v, err := j.embedder.Embed(ctx, content, ai.TaskTypeDocument)
		if err != nil {
			return err
		}
		vec = v
		return nil
	}, policy)
	if err != nil {
		return nil, err
	}
	return vec, nil
}
