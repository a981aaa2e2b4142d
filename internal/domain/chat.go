package domain

import "time"

// Data sources recorded on a ChatTurn beyond the per-intent handler names.
const (
	DataSourceRAG           = "rag"
	DataSourceFallbackError = "fallback_error"
)

// ChatTurn is one persisted user/answer exchange with provenance metadata.
// Created exactly once per resolved message, never mutated.
type ChatTurn struct {
	ID         int64
	CallerID   string
	Message    string
	Answer     string
	Intent     Intent
	DataSource string
	CreatedAt  time.Time
}

// Resolution is the outcome of resolving one message.
type Resolution struct {
	Answer     string
	Intent     Intent
	DataSource string
}
