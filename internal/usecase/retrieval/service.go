// Package retrieval answers free-form questions from the document index:
// embed the question, fetch the nearest chunks, and either generate a
// grounded answer or fall back to quoting the best chunk.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/logger"
)

// NoInformationAnswer is the terminal reply when nothing relevant can be
// retrieved, including when the embedding provider is down.
const NoInformationAnswer = "I could not find relevant information for your question. " +
	"Please contact our support team directly for further assistance."

// Config tunes retrieval behavior.
type Config struct {
	Collection         string
	MaxResults         int
	RelevanceThreshold float64
	ContextCharLimit   int // max runes of chunk text handed to the generator
	ExtractCharLimit   int // max runes quoted in the extractive fallback
	GenerationEnabled  bool
}

// Service is the RAG answerer.
type Service struct {
	embed  Embedder
	search Searcher
	gen    Generator
	cfg    Config
}

// New creates the answerer. gen may be nil when generation is disabled.
func New(embed Embedder, search Searcher, gen Generator, cfg Config) *Service {
	return &Service{embed: embed, search: search, gen: gen, cfg: cfg}
}

// Answer resolves a question against the document collection. Provider
// outages and empty retrievals produce NoInformationAnswer with a nil
// error; only store failures surface as errors.
func (s *Service) Answer(ctx context.Context, question string) (string, error) {
	log := logger.FromContext(ctx)

	emb, err := s.embed.Embed(ctx, question)
	if err != nil {
		if errors.Is(err, domain.ErrProviderUnavailable) {
			log.Warn("question embedding unavailable", zap.Error(err))
			return NoInformationAnswer, nil
		}
		return "", fmt.Errorf("embed question: %w", err)
	}

	hits, err := s.search.Search(ctx, s.cfg.Collection, emb.Embedding, s.cfg.MaxResults)
	if err != nil {
		if errors.Is(err, domain.ErrCollectionNotFound) {
			log.Warn("document collection missing", zap.String("collection", s.cfg.Collection))
			return NoInformationAnswer, nil
		}
		return "", fmt.Errorf("search chunks: %w", err)
	}

	relevant := hits[:0:0]
	for _, h := range hits {
		if h.Score >= s.cfg.RelevanceThreshold {
			relevant = append(relevant, h)
		}
	}
	if len(relevant) == 0 {
		return NoInformationAnswer, nil
	}

	if s.cfg.GenerationEnabled && s.gen != nil {
		answer, err := s.gen.Generate(ctx, question, s.buildContext(relevant))
		if err == nil && strings.TrimSpace(answer) != "" {
			return answer, nil
		}
		log.Warn("answer generation failed, using extractive fallback", zap.Error(err))
	}

	return truncateRunes(relevant[0].Text, s.cfg.ExtractCharLimit), nil
}

// buildContext concatenates chunk texts in descending relevance order,
// stopping before the total exceeds ContextCharLimit. The best chunk is
// always included, truncated if it alone exceeds the limit.
func (s *Service) buildContext(hits domain.RetrievalResult) string {
	var sb strings.Builder
	total := 0
	for i, h := range hits {
		text := h.Text
		if i == 0 && len([]rune(text)) > s.cfg.ContextCharLimit {
			text = truncateRunes(text, s.cfg.ContextCharLimit)
		}
		n := len([]rune(text))
		if i > 0 && total+n > s.cfg.ContextCharLimit {
			break
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
		total += n
	}
	return sb.String()
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return strings.TrimSpace(string(runes[:limit])) + "..."
}
