package resolve

import (
	"context"

	"github.com/careline-ai/careline/internal/domain"
	"github.com/careline-ai/careline/internal/usecase/handlers"
)

// Classifier maps a message to a business intent.
type Classifier interface {
	Classify(message string) domain.Intent
}

// HandlerRegistry yields the structured handler for an intent, or nil when
// the intent has none and the message goes to retrieval.
type HandlerRegistry interface {
	For(intent domain.Intent) handlers.Handler
}

// Answerer resolves free-form questions against the document index.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, error)
}

// HistoryStore records and lists resolved turns.
type HistoryStore interface {
	Append(ctx context.Context, turn domain.ChatTurn) error
	List(ctx context.Context, callerID string, limit, offset int) ([]domain.ChatTurn, error)
}
