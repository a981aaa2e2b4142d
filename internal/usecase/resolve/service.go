// Package resolve is the dispatcher: classify each message, route it to a
// structured handler or the document answerer, and record exactly one
// history turn per message.
package resolve

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/logger"
	"github.com/careline-ai/careline/internal/metrics"
)

// errorApology is the generic answer when resolution fails on
// infrastructure. Failure details stay in the logs.
const errorApology = "Sorry, something went wrong while processing your request. Please try again in a moment."

// Service routes messages and records turns.
type Service struct {
	classify Classifier
	handlers HandlerRegistry
	answerer Answerer
	history  HistoryStore
	now      func() time.Time
}

// New creates the dispatcher. now is injectable for tests.
func New(c Classifier, h HandlerRegistry, a Answerer, hist HistoryStore, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{classify: c, handlers: h, answerer: a, history: hist, now: now}
}

// Resolve answers one message. Every outcome, including the apology on
// infrastructure failure, records exactly one history turn. The returned
// error is nil in all cases so callers can always show the answer. An empty
// or whitespace message classifies as unknown and flows through retrieval
// like any other unanswerable question.
func (s *Service) Resolve(ctx context.Context, callerID, message string) (domain.Resolution, error) {
	intent := s.classify.Classify(message)
	start := s.now()

	answer, dataSource, err := s.dispatch(ctx, intent, callerID, message)
	if err != nil {
		logger.FromContext(ctx).Error("resolution failed",
			zap.String("intent", string(intent)),
			zap.Error(err))
		answer, dataSource = errorApology, domain.DataSourceFallbackError
	}

	metrics.ResolutionsTotal.WithLabelValues(string(intent), dataSource).Inc()
	metrics.ResolutionDuration.WithLabelValues(string(intent)).Observe(s.now().Sub(start).Seconds())

	s.record(ctx, domain.ChatTurn{
		CallerID:   callerID,
		Message:    message,
		Answer:     answer,
		Intent:     intent,
		DataSource: dataSource,
		CreatedAt:  s.now(),
	})

	return domain.Resolution{Answer: answer, Intent: intent, DataSource: dataSource}, nil
}

// dispatch picks the structured handler when the intent has one, otherwise
// hands the message to the document answerer. The data source names the
// handler's intent on the structured path and "rag" on the retrieval path.
func (s *Service) dispatch(ctx context.Context, intent domain.Intent, callerID, message string) (string, string, error) {
	if h := s.handlers.For(intent); h != nil {
		answer, err := h.Handle(ctx, callerID, message)
		return answer, string(intent), err
	}
	answer, err := s.answerer.Answer(ctx, message)
	return answer, domain.DataSourceRAG, err
}

// record appends the turn. A history failure is logged, never surfaced: a
// produced answer is worth more than a complete log.
func (s *Service) record(ctx context.Context, turn domain.ChatTurn) {
	if err := s.history.Append(ctx, turn); err != nil {
		logger.FromContext(ctx).Error("history append failed",
			zap.String("caller_id", turn.CallerID),
			zap.Error(err))
	}
}

// History lists the caller's recent turns, most recent first.
func (s *Service) History(ctx context.Context, callerID string, limit, offset int) ([]domain.ChatTurn, error) {
	turns, err := s.history.List(ctx, callerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return turns, nil
}
