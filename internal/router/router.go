package router

import (
	"context"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/ndgo/studybot/internal/ai"
	appErr "github.com/ndgo/studybot/internal/pkg/errors"
)

// Answer is the routed model output. Fallback marks a deep-backend failure
// that was recovered by the fast backend.
type Answer struct {
	Content   string
	ModelUsed string
	Fallback  bool
}

// Router picks the fast or deep backend by query complexity. Both backends
// receive the same retrieved context; routing never alters retrieval.
type Router struct {
	fast    ai.IGenerator
	deep    ai.IGenerator
	timeout time.Duration
}

func New(fast, deep ai.IGenerator, timeout time.Duration) *Router {
	return &Router{fast: fast, deep: deep, timeout: timeout}
}

// Route classifies the query and calls the chosen backend with the prompt.
// Deep failure falls back to fast; the error only surfaces when the fast
// backend fails too.
func (r *Router) Route(ctx context.Context, query string, prompt string) (*Answer, error) {
	logger := logutil.GetLogger(ctx)
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	score := ComplexityScore(query)
	if score >= complexityCutoff && r.deep != nil {
		content, err := r.deep.Generate(ctx, prompt)
		if err == nil {
			return &Answer{Content: content, ModelUsed: r.deep.ModelName()}, nil
		}
		logger.Warn("deep backend failed, falling back",
			zap.Int("complexity", score),
			zap.String("model", r.deep.ModelName()),
			zap.Error(err),
		)
		content, ferr := r.fast.Generate(ctx, prompt)
		if ferr != nil {
			return nil, fmt.Errorf("%w: deep: %v; fast: %v", appErr.ErrModelBackend, err, ferr)
		}
		return &Answer{Content: content, ModelUsed: r.fast.ModelName(), Fallback: true}, nil
	}

	content, err := r.fast.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: fast: %v", appErr.ErrModelBackend, err)
	}
	return &Answer{Content: content, ModelUsed: r.fast.ModelName()}, nil
}
