package job

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/model"
	"github.com/ndgo/studybot/internal/pkg/dbutil"
)

type TempDocumentStore interface {
	ListExpired(ctx context.Context, cutoff time.Time) ([]*model.TempDocument, error)
	Delete(ctx context.Context, id int64) error
}

type TempChunkStore interface {
	DeleteByDocument(ctx context.Context, documentID int64) (int64, error)
}

type FileRemover interface {
	Delete(ctx context.Context, key string) error
}

type Invalidator interface {
	Invalidate()
}

// TempCleanupJob hard-deletes temporary documents (chunks, row, stored file)
// past the retention window. One failing document never aborts the rest of
// the sweep; errors are aggregated and logged.
type TempCleanupJob struct {
	docs      TempDocumentStore
	chunks    TempChunkStore
	files     FileRemover
	idx       Invalidator
	retention time.Duration
	now       func() time.Time
}

func NewTempCleanupJob(docs TempDocumentStore, chunks TempChunkStore, files FileRemover, idx Invalidator, retention time.Duration) *TempCleanupJob {
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	return &TempCleanupJob{
		docs:      docs,
		chunks:    chunks,
		files:     files,
		idx:       idx,
		retention: retention,
		now:       time.Now,
	}
}

func (j *TempCleanupJob) Name() string {
	return "temp_cleanup"
}

func (j *TempCleanupJob) Run(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	cutoff := j.now().Add(-j.retention)
	expired, err := j.docs.ListExpired(ctx, cutoff)
	if err != nil {
		if dbutil.IsMissingTable(err) {
			logger.Warn("temp tables not migrated yet, skipping sweep")
			return nil
		}
		return err
	}
	if len(expired) == 0 {
		return nil
	}

	var sweepErr error
	deleted := 0
	var removedChunks int64
	for _, doc := range expired {
		if doc.FileKey != "" && j.files != nil {
			if err := j.files.Delete(ctx, doc.FileKey); err != nil {
				sweepErr = multierror.Append(sweepErr, err)
				logger.Warn("delete upload file failed, continuing",
					zap.Int64("doc_id", doc.ID),
					zap.String("file_key", doc.FileKey),
					zap.Error(err),
				)
			}
		}
		n, err := j.chunks.DeleteByDocument(ctx, doc.ID)
		if err != nil {
			sweepErr = multierror.Append(sweepErr, err)
			continue
		}
		removedChunks += n
		if err := j.docs.Delete(ctx, doc.ID); err != nil {
			sweepErr = multierror.Append(sweepErr, err)
			continue
		}
		deleted++
	}
	// Chunk rows may be gone even when the parent row deletion failed, and the
	// index must not keep serving them.
	if deleted > 0 || removedChunks > 0 {
		j.idx.Invalidate()
	}
	logger.Info("temp cleanup swept",
		zap.Int("expired", len(expired)),
		zap.Int("deleted", deleted),
	)
	// Partial failures were logged above; the sweep is out-of-band, so the
	// aggregate error is returned only for job-level logging.
	return sweepErr
}
