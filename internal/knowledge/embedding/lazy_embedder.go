package embedding

import (
	"context"
	"sync"

	"github.com/lk2023060901/rag-search-gateway/internal/pkg/logger"
	"go.uber.org/zap"
)

// LazyEmbedder defers construction of the underlying embedder until the first
// call. Initialization is idempotent: a failed attempt is retried on the next
// call instead of poisoning the instance, and a successful one is shared by
// all subsequent calls.
type LazyEmbedder struct {
	mu       sync.Mutex
	embedder Embedder
	build    func() (Embedder, error)
	logger   *logger.Logger

	// reported before the embedder exists; fixed by the build function
	dimension int
	model     string
}

// NewLazyEmbedder wraps a build function. dimension and model describe the
// embedder the build function will produce.
func NewLazyEmbedder(build func() (Embedder, error), dimension int, model string, lgr *logger.Logger) *LazyEmbedder {
	if lgr == nil {
		lgr = logger.L()
	}
	return &LazyEmbedder{
		build:     build,
		logger:    lgr,
		dimension: dimension,
		model:     model,
	}
}

// get returns the shared embedder, constructing it on first use.
func (l *LazyEmbedder) get() (Embedder, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.embedder != nil {
		return l.embedder, nil
	}

	embedder, err := l.build()
	if err != nil {
		l.logger.Error("embedder initialization failed", zap.Error(err))
		return nil, err
	}

	l.embedder = embedder
	l.logger.Info("embedder initialized",
		zap.String("model", embedder.Model()),
		zap.Int("dimension", embedder.Dimension()))
	return embedder, nil
}

// Embed generates a vector for a single text.
func (l *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	embedder, err := l.get()
	if err != nil {
		return nil, err
	}
	return embedder.Embed(ctx, text)
}

// BatchEmbed generates vectors for a batch of texts.
func (l *LazyEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	embedder, err := l.get()
	if err != nil {
		return nil, err
	}
	return embedder.BatchEmbed(ctx, texts)
}

// Dimension returns the vector dimension.
func (l *LazyEmbedder) Dimension() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.embedder != nil {
		return l.embedder.Dimension()
	}
	return l.dimension
}

// Model returns the model name.
func (l *LazyEmbedder) Model() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.embedder != nil {
		return l.embedder.Model()
	}
	return l.model
}
