package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/ai"
	"github.com/ndgo/studybot/internal/index"
	"github.com/ndgo/studybot/internal/model"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
)

// Query is one retrieval request from the chat layer. UserID, SessionID and
// SubjectID are trusted as given; authorization happened upstream.
type Query struct {
	Text         string
	SubjectID    string
	UserID       int64
	SessionID    int64 // 0 when the conversation has no session yet
	VideoContext bool
}

// Result is ephemeral, produced per query, never persisted.
type Result struct {
	ChunkID    int64
	DocumentID int64
	Content    string
	Similarity float64
	Origin     model.Origin
	IsExercise bool
	CreatedAt  time.Time
}

// Store is the read-side of the chunk store the engine re-validates results
// against. A missing chunk means the index was stale; the hit is dropped.
type Store interface {
	Get(ctx context.Context, origin model.Origin, chunkID int64) (model.Chunk, error)
}

type Engine struct {
	embedder ai.IEmbedder
	idx      *index.Index
	store    Store
	topN     int
	timeout  time.Duration
	embCache *expirable.LRU[string, []float32]
	now      func() time.Time
}

func NewEngine(embedder ai.IEmbedder, idx *index.Index, store Store, topN int, timeout time.Duration) *Engine {
	if topN <= 0 {
		topN = 5
	}
	return &Engine{
		embedder: embedder,
		idx:      idx,
		store:    store,
		topN:     topN,
		timeout:  timeout,
		embCache: expirable.NewLRU[string, []float32](4096, nil, 30*time.Minute),
		now:      time.Now,
	}
}

// Retrieve embeds the query, searches the whole index, re-scores with
// recency/origin/context weighting, filters by threshold and ownership, and
// returns at most topN results, temporary-origin first.
//
// An empty index or no surviving candidate is not an error: the caller
// proceeds without retrieved context. An embedding failure propagates.
func (e *Engine) Retrieve(ctx context.Context, q Query) ([]Result, error) {
	logger := logutil.GetLogger(ctx).With(
		zap.Int64("user_id", q.UserID),
		zap.String("subject_id", q.SubjectID),
	)
	vague := ClassifyVague(q.Text)

	queryVec, err := e.embedQuery(ctx, q.Text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrEmbeddingUnavailable, err)
	}

	// k = full index size: weighting and filtering below can demote or
	// exclude many raw matches, so truncating early would starve them.
	matches, err := e.idx.Search(ctx, queryVec, 0)
	if err != nil {
		if appErr.IsEmptyIndex(err) {
			logger.Debug("vector index empty, retrieving nothing")
			return nil, nil
		}
		return nil, err
	}

	now := e.now()
	candidates := make([]index.Match, 0, len(matches))
	scores := make(map[candidateKey]float64, len(matches))
	for _, m := range matches {
		age := now.Sub(m.CreatedAt)
		if !e.admit(m, q, age) {
			continue
		}
		weighted := weightedSimilarity(m.Similarity, m.Origin, age, vague, q.VideoContext)
		if weighted < acceptThreshold(m.Origin, age, vague) {
			continue
		}
		candidates = append(candidates, m)
		scores[candidateKey{m.Origin, m.ChunkID}] = weighted
	}

	// Temporary-origin chunks outrank everything regardless of score;
	// session material is what the student is working with right now.
	sort.SliceStable(candidates, func(a, b int) bool {
		ca, cb := candidates[a], candidates[b]
		aTemp := ca.Origin == model.OriginTemporary
		bTemp := cb.Origin == model.OriginTemporary
		if aTemp != bTemp {
			return aTemp
		}
		return scores[candidateKey{ca.Origin, ca.ChunkID}] > scores[candidateKey{cb.Origin, cb.ChunkID}]
	})

	results := make([]Result, 0, e.topN)
	for _, m := range candidates {
		if len(results) >= e.topN {
			break
		}
		chunk, err := e.store.Get(ctx, m.Origin, m.ChunkID)
		if err != nil {
			if appErr.IsNotFound(err) {
				// Stale index entry, the row is gone. Drop silently.
				continue
			}
			return nil, fmt.Errorf("%w: %v", appErr.ErrChunkStore, err)
		}
		results = append(results, Result{
			ChunkID:    m.ChunkID,
			DocumentID: m.DocumentID,
			Content:    chunk.Body(),
			Similarity: scores[candidateKey{m.Origin, m.ChunkID}],
			Origin:     m.Origin,
			IsExercise: m.IsExercise,
			CreatedAt:  m.CreatedAt,
		})
	}
	logger.Debug("retrieval completed",
		zap.Bool("vague", vague),
		zap.Int("raw_matches", len(matches)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

type candidateKey struct {
	origin  model.Origin
	chunkID int64
}

// admit applies the hard filters: subject equality always; for temporary
// chunks also ownership, and session scoping with a grace window for uploads
// made before the session was attached.
func (e *Engine) admit(m index.Match, q Query, age time.Duration) bool {
	if m.SubjectID != q.SubjectID {
		return false
	}
	if m.Origin != model.OriginTemporary {
		return true
	}
	if m.OwnerUserID != q.UserID {
		return false
	}
	if q.SessionID != 0 && m.SessionID != q.SessionID && age >= sessionGraceWindow {
		return false
	}
	return true
}

func (e *Engine) embedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if vec, ok := e.embCache.Get(key); ok {
		return vec, nil
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	vec, err := e.embedder.Embed(ctx, text, ai.TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	e.embCache.Add(key, vec)
	return vec, nil
}

func cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
