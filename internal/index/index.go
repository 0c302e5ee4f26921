package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/model"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
)

type State int32

const (
	StateUninitialized State = iota
	StateBuilding
	StateReady
)

// Entry is one indexed chunk. Keeping everything in a single struct (rather
// than parallel arrays per field) means a snapshot can never drift out of
// sync with itself.
type Entry struct {
	ChunkID     int64
	DocumentID  int64
	Origin      model.Origin
	SubjectID   string
	OwnerUserID int64
	SessionID   int64
	IsExercise  bool
	CreatedAt   time.Time
	Vector      []float32
}

// Match is an Entry with its raw similarity for one query.
type Match struct {
	Entry
	Similarity float64
}

// Source supplies every chunk that currently has an embedding, most recent
// first, across all three origins.
type Source interface {
	ListEntries(ctx context.Context) ([]Entry, error)
}

type snapshot struct {
	entries []Entry
	dim     int
}

// Index is a flat similarity index over chunk embeddings. It is a disposable
// read cache derived from the chunk store: rebuilt wholesale, never patched
// in place. Readers load the snapshot atomically, so a rebuild racing a
// search is safe; the reader just sees the previous snapshot.
type Index struct {
	source  Source
	dim     int
	state   atomic.Int32
	snap    atomic.Pointer[snapshot]
	buildMu sync.Mutex
}

// New creates an index. dim is the pinned embedding dimensionality; 0 means
// adopt the dimension of the first entry seen.
func New(source Source, dim int) *Index {
	return &Index{source: source, dim: dim}
}

func (i *Index) State() State {
	return State(i.state.Load())
}

// Invalidate marks the index stale after any chunk store mutation. The old
// snapshot stays readable until the next rebuild swaps it out.
func (i *Index) Invalidate() {
	i.state.Store(int32(StateUninitialized))
}

func (i *Index) Size() int {
	snap := i.snap.Load()
	if snap == nil {
		return 0
	}
	return len(snap.entries)
}

// Rebuild reads all embedded chunks, deduplicates by (origin, chunkID) and
// swaps in a fresh snapshot. Returns ErrEmptyIndex (non-fatal) when no chunk
// has an embedding yet.
func (i *Index) Rebuild(ctx context.Context) error {
	i.buildMu.Lock()
	defer i.buildMu.Unlock()
	i.state.Store(int32(StateBuilding))

	entries, err := i.source.ListEntries(ctx)
	if err != nil {
		i.state.Store(int32(StateUninitialized))
		return fmt.Errorf("%w: list embedded chunks: %v", appErr.ErrChunkStore, err)
	}

	type key struct {
		origin  model.Origin
		chunkID int64
	}
	seen := make(map[key]struct{}, len(entries))
	deduped := make([]Entry, 0, len(entries))
	dim := i.dim
	for _, e := range entries {
		k := key{origin: e.Origin, chunkID: e.ChunkID}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if dim == 0 {
			dim = len(e.Vector)
		}
		if len(e.Vector) != dim {
			i.state.Store(int32(StateUninitialized))
			return fmt.Errorf("%w: chunk %s/%d has dim %d, index pinned to %d",
				appErr.ErrDimensionMismatch, e.Origin, e.ChunkID, len(e.Vector), dim)
		}
		deduped = append(deduped, e)
	}

	i.snap.Store(&snapshot{entries: deduped, dim: dim})
	i.state.Store(int32(StateReady))
	logutil.GetLogger(ctx).Info("vector index rebuilt", zap.Int("entries", len(deduped)), zap.Int("dim", dim))
	if len(deduped) == 0 {
		return appErr.ErrEmptyIndex
	}
	return nil
}

// Search returns the k nearest entries by squared L2 distance, with
// similarity = max(0, 1 - d/2). k <= 0 or k > size means the whole index.
// A stale state triggers a synchronous rebuild first.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]Match, error) {
	if i.State() != StateReady {
		if err := i.Rebuild(ctx); err != nil {
			return nil, err
		}
	}
	snap := i.snap.Load()
	if snap == nil || len(snap.entries) == 0 {
		return nil, appErr.ErrEmptyIndex
	}
	if len(query) != snap.dim {
		return nil, fmt.Errorf("%w: query dim %d, index dim %d", appErr.ErrDimensionMismatch, len(query), snap.dim)
	}

	matches := make([]Match, 0, len(snap.entries))
	for _, e := range snap.entries {
		d := squaredL2(query, e.Vector)
		sim := 1 - d/2
		if sim < 0 {
			sim = 0
		}
		matches = append(matches, Match{Entry: e, Similarity: sim})
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Similarity > matches[b].Similarity
	})
	if k > 0 && k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}

func squaredL2(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}
