package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndgo/studybot/internal/model"
)

type fakeTempDocs struct {
	docs       []*model.TempDocument
	deleted    []int64
	lastCutoff time.Time
	deleteErr  error
}

func (f *fakeTempDocs) ListExpired(ctx context.Context, cutoff time.Time) ([]*model.TempDocument, error) {
	f.lastCutoff = cutoff
	var expired []*model.TempDocument
	for _, d := range f.docs {
		if d.UploadedAt.Before(cutoff) {
			expired = append(expired, d)
		}
	}
	return expired, nil
}

func (f *fakeTempDocs) Delete(ctx context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	remaining := f.docs[:0]
	for _, d := range f.docs {
		if d.ID != id {
			remaining = append(remaining, d)
		}
	}
	f.docs = remaining
	return nil
}

type fakeTempChunks struct {
	deletedDocs []int64
}

func (f *fakeTempChunks) DeleteByDocument(ctx context.Context, documentID int64) (int64, error) {
	f.deletedDocs = append(f.deletedDocs, documentID)
	return 2, nil
}

type fakeFiles struct {
	removed []string
	failOn  string
}

func (f *fakeFiles) Delete(ctx context.Context, key string) error {
	if key == f.failOn {
		return errors.New("object store unavailable")
	}
	f.removed = append(f.removed, key)
	return nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate() {
	f.calls++
}

func TestTempCleanup_DeletesOnlyExpiredDocuments(t *testing.T) {
	now := time.Now()
	docs := &fakeTempDocs{docs: []*model.TempDocument{
		{ID: 1, FileKey: "old.pdf", UploadedAt: now.Add(-3 * time.Hour)},
		{ID: 2, FileKey: "fresh.pdf", UploadedAt: now.Add(-10 * time.Minute)},
	}}
	chunks := &fakeTempChunks{}
	files := &fakeFiles{}
	idx := &fakeInvalidator{}
	j := NewTempCleanupJob(docs, chunks, files, idx, 2*time.Hour)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, []int64{1}, docs.deleted)
	require.Equal(t, []int64{1}, chunks.deletedDocs)
	require.Equal(t, []string{"old.pdf"}, files.removed)
	require.Equal(t, 1, idx.calls)
}

func TestTempCleanup_IsIdempotent(t *testing.T) {
	now := time.Now()
	docs := &fakeTempDocs{docs: []*model.TempDocument{
		{ID: 1, UploadedAt: now.Add(-3 * time.Hour)},
	}}
	idx := &fakeInvalidator{}
	j := NewTempCleanupJob(docs, &fakeTempChunks{}, &fakeFiles{}, idx, 2*time.Hour)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, []int64{1}, docs.deleted)
	require.Equal(t, 1, idx.calls)
}

func TestTempCleanup_FileFailureContinuesSweep(t *testing.T) {
	now := time.Now()
	docs := &fakeTempDocs{docs: []*model.TempDocument{
		{ID: 1, FileKey: "stuck.pdf", UploadedAt: now.Add(-3 * time.Hour)},
		{ID: 2, FileKey: "ok.pdf", UploadedAt: now.Add(-3 * time.Hour)},
	}}
	files := &fakeFiles{failOn: "stuck.pdf"}
	idx := &fakeInvalidator{}
	j := NewTempCleanupJob(docs, &fakeTempChunks{}, files, idx, 2*time.Hour)
	j.now = func() time.Time { return now }

	err := j.Run(context.Background())
	require.Error(t, err)
	// both documents still swept; only the file deletion failed
	require.ElementsMatch(t, []int64{1, 2}, docs.deleted)
	require.Equal(t, []string{"ok.pdf"}, files.removed)
	require.Equal(t, 1, idx.calls)
}

func TestTempCleanup_ChunkRemovalAloneInvalidatesIndex(t *testing.T) {
	now := time.Now()
	docs := &fakeTempDocs{
		docs: []*model.TempDocument{
			{ID: 1, UploadedAt: now.Add(-3 * time.Hour)},
		},
		deleteErr: errors.New("deadlock detected"),
	}
	chunks := &fakeTempChunks{}
	idx := &fakeInvalidator{}
	j := NewTempCleanupJob(docs, chunks, &fakeFiles{}, idx, 2*time.Hour)
	j.now = func() time.Time { return now }

	err := j.Run(context.Background())
	require.Error(t, err)
	require.Empty(t, docs.deleted)
	// chunk rows are gone, so the index must rebuild even though the
	// parent row survived
	require.Equal(t, []int64{1}, chunks.deletedDocs)
	require.Equal(t, 1, idx.calls)
}

func TestTempCleanup_NothingExpired(t *testing.T) {
	now := time.Now()
	docs := &fakeTempDocs{docs: []*model.TempDocument{
		{ID: 1, UploadedAt: now.Add(-time.Minute)},
	}}
	idx := &fakeInvalidator{}
	j := NewTempCleanupJob(docs, &fakeTempChunks{}, &fakeFiles{}, idx, 2*time.Hour)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.Empty(t, docs.deleted)
	require.Zero(t, idx.calls)
}

func TestTempCleanup_CutoffUsesRetention(t *testing.T) {
	now := time.Now()
	docs := &fakeTempDocs{}
	j := NewTempCleanupJob(docs, &fakeTempChunks{}, &fakeFiles{}, &fakeInvalidator{}, 45*time.Minute)
	j.now = func() time.Time { return now }

	require.NoError(t, j.Run(context.Background()))
	require.Equal(t, now.Add(-45*time.Minute), docs.lastCutoff)
}
