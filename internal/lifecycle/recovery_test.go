package lifecycle

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ndgo/studybot/internal/model"
)

type fakeTempDocs struct {
	docs    []*model.TempDocument
	deleted []int64
}

func (f *fakeTempDocs) ListAll(ctx context.Context) ([]*model.TempDocument, error) {
	return f.docs, nil
}

func (f *fakeTempDocs) Delete(ctx context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeTempChunks struct {
	rows           int64
	deleteAllCalls int
}

func (f *fakeTempChunks) DeleteAll(ctx context.Context) (int64, error) {
	f.deleteAllCalls++
	n := f.rows
	f.rows = 0
	return n, nil
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

func TestPurge_DropsAllTemporaryState(t *testing.T) {
	docs := &fakeTempDocs{docs: []*model.TempDocument{
		{ID: 1, FileKey: "a.pdf", UploadedAt: time.Now()},
		{ID: 2, FileKey: "b.pdf", UploadedAt: time.Now()},
		{ID: 3, UploadedAt: time.Now()},
	}}
	chunks := &fakeTempChunks{rows: 3}
	files := &fakeFiles{}
	idx := &fakeInvalidator{}
	r := NewCrashRecovery(NewSentinel(filepath.Join(t.TempDir(), "marker")), docs, chunks, files, idx)

	require.NoError(t, r.Purge(context.Background()))
	require.ElementsMatch(t, []int64{1, 2, 3}, docs.deleted)
	require.ElementsMatch(t, []string{"a.pdf", "b.pdf"}, files.removed)
	require.Equal(t, 1, chunks.deleteAllCalls)
	require.Equal(t, 1, idx.calls)
}

func TestPurge_FileFailureDoesNotBlockRowDeletion(t *testing.T) {
	docs := &fakeTempDocs{docs: []*model.TempDocument{
		{ID: 1, FileKey: "stuck.pdf", UploadedAt: time.Now()},
		{ID: 2, FileKey: "ok.pdf", UploadedAt: time.Now()},
	}}
	chunks := &fakeTempChunks{}
	files := &fakeFiles{failOn: "stuck.pdf"}
	idx := &fakeInvalidator{}
	r := NewCrashRecovery(NewSentinel(filepath.Join(t.TempDir(), "marker")), docs, chunks, files, idx)

	err := r.Purge(context.Background())
	require.Error(t, err)
	require.ElementsMatch(t, []int64{1, 2}, docs.deleted)
	require.ElementsMatch(t, []string{"ok.pdf"}, files.removed)
}

func TestPurge_NothingToDo(t *testing.T) {
	docs := &fakeTempDocs{}
	chunks := &fakeTempChunks{}
	idx := &fakeInvalidator{}
	r := NewCrashRecovery(NewSentinel(filepath.Join(t.TempDir(), "marker")), docs, chunks, &fakeFiles{}, idx)

	require.NoError(t, r.Purge(context.Background()))
	require.Empty(t, docs.deleted)
	require.Zero(t, idx.calls)
}

func TestPurge_OrphanChunksInvalidateIndex(t *testing.T) {
	docs := &fakeTempDocs{}
	chunks := &fakeTempChunks{rows: 5}
	idx := &fakeInvalidator{}
	r := NewCrashRecovery(NewSentinel(filepath.Join(t.TempDir(), "marker")), docs, chunks, &fakeFiles{}, idx)

	require.NoError(t, r.Purge(context.Background()))
	require.Empty(t, docs.deleted)
	require.Equal(t, 1, idx.calls)
}

func TestRun_CleanShutdownSkipsPurge(t *testing.T) {
	sentinel := NewSentinel(filepath.Join(t.TempDir(), "marker"))
	require.NoError(t, sentinel.Mark())

	docs := &fakeTempDocs{docs: []*model.TempDocument{{ID: 1, UploadedAt: time.Now()}}}
	r := NewCrashRecovery(sentinel, docs, &fakeTempChunks{}, &fakeFiles{}, &fakeInvalidator{})
	r.settle = 0

	r.Run(context.Background())
	require.Empty(t, docs.deleted)
}

func TestRun_UncleanShutdownPurgesAfterSettle(t *testing.T) {
	sentinel := NewSentinel(filepath.Join(t.TempDir(), "marker"))

	docs := &fakeTempDocs{docs: []*model.TempDocument{{ID: 1, UploadedAt: time.Now()}}}
	r := NewCrashRecovery(sentinel, docs, &fakeTempChunks{}, &fakeFiles{}, &fakeInvalidator{})
	r.settle = time.Millisecond

	r.Run(context.Background())
	require.Equal(t, []int64{1}, docs.deleted)
}
