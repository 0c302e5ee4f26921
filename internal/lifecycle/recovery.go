package lifecycle

import (
	"context"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/model"
	"github.com/ndgo/studybot/internal/pkg/dbutil"
)

type TempDocumentPurger interface {
	ListAll(ctx context.Context) ([]*model.TempDocument, error)
	Delete(ctx context.Context, id int64) error
}

type TempChunkPurger interface {
	DeleteAll(ctx context.Context) (int64, error)
}

type FileRemover interface {
	Delete(ctx context.Context, key string) error
}

type Invalidator interface {
	Invalidate()
}

// CrashRecovery purges all temporary state when the previous run did not
// shut down cleanly. After an unclean stop there is no reliable record of
// which temporary sessions were live, so the safe action is to drop
// everything and let students re-upload.
type CrashRecovery struct {
	sentinel *Sentinel
	docs     TempDocumentPurger
	chunks   TempChunkPurger
	files    FileRemover
	idx      Invalidator
	settle   time.Duration
}

func NewCrashRecovery(sentinel *Sentinel, docs TempDocumentPurger, chunks TempChunkPurger, files FileRemover, idx Invalidator) *CrashRecovery {
	return &CrashRecovery{
		sentinel: sentinel,
		docs:     docs,
		chunks:   chunks,
		files:    files,
		idx:      idx,
		settle:   5 * time.Second,
	}
}

// Run checks the sentinel and, on an unclean previous shutdown, waits a
// short settle period then purges. Intended to run in a goroutine at
// startup; errors are logged, never fatal.
func (r *CrashRecovery) Run(ctx context.Context) {
	logger := logutil.GetLogger(ctx)
	clean, err := r.sentinel.Consume()
	if err != nil {
		logger.Warn("cannot read shutdown sentinel, assuming unclean", zap.Error(err))
	}
	if clean {
		logger.Info("previous shutdown was clean, keeping temporary data")
		return
	}
	logger.Warn("unclean shutdown detected, purging temporary data",
		zap.Duration("settle", r.settle))

	select {
	case <-time.After(r.settle):
	case <-ctx.Done():
		return
	}
	if err := r.Purge(ctx); err != nil {
		logger.Error("crash-recovery purge finished with errors", zap.Error(err))
	}
}

// Purge drops every temporary document, chunk and stored file. Partial
// failures are aggregated; one stuck file never blocks the rest.
func (r *CrashRecovery) Purge(ctx context.Context) error {
	logger := logutil.GetLogger(ctx)
	docs, err := r.docs.ListAll(ctx)
	if err != nil {
		if dbutil.IsMissingTable(err) {
			return nil
		}
		return err
	}

	var purgeErr error
	for _, doc := range docs {
		if doc.FileKey != "" && r.files != nil {
			if err := r.files.Delete(ctx, doc.FileKey); err != nil {
				purgeErr = multierror.Append(purgeErr, err)
			}
		}
	}
	removed, err := r.chunks.DeleteAll(ctx)
	if err != nil {
		purgeErr = multierror.Append(purgeErr, err)
	}
	deleted := 0
	for _, doc := range docs {
		if err := r.docs.Delete(ctx, doc.ID); err != nil {
			purgeErr = multierror.Append(purgeErr, err)
			continue
		}
		deleted++
	}
	// Orphan chunks can outlive their parent rows; any removal means the
	// index is stale.
	if deleted > 0 || removed > 0 {
		r.idx.Invalidate()
	}
	logger.Info("temporary state purged", zap.Int("documents", deleted))
	return purgeErr
}
