// Package embedding composes the embedding strategies: an external provider,
// a deterministic local projection, and a fallback chain over both.
package embedding

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/logger"
)

// Fallback tries the primary embedder first and degrades to the backup when
// the provider is unreachable. Both embedders must produce vectors of the
// same dimensionality or stored and query vectors stop being comparable.
type Fallback struct {
	primary domain.Embedder
	backup  domain.Embedder
}

// NewFallback chains two embedders.
func NewFallback(primary, backup domain.Embedder) *Fallback {
	return &Fallback{primary: primary, backup: backup}
}

// Embed returns the primary embedding, or the backup's when the primary
// reports domain.ErrProviderUnavailable. Other errors pass through.
func (f *Fallback) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := f.primary.Embed(ctx, text)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, domain.ErrProviderUnavailable) {
		return domain.EmbeddingResult{}, err
	}

	logger.FromContext(ctx).Warn("embedding provider unavailable, using local fallback",
		zap.Error(err))
	return f.backup.Embed(ctx, text)
}
