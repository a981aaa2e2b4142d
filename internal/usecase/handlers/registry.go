package handlers

import (
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

const defaultListLimit = 5

// hardMaxLimit bounds list sizes parsed from free text.
const hardMaxLimit = 50

// Registry holds exactly one handler per business intent.
type Registry struct {
	handlers map[domain.Intent]Handler
}

// NewRegistry wires the per-intent handlers over the record store. now is
// injectable for date-range parsing in tests.
func NewRegistry(store RecordStore, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}

	r := &Registry{handlers: make(map[domain.Intent]Handler)}
	for _, h := range []Handler{
		&orderHandler{store: store, now: now},
		&invoiceHandler{store: store, now: now},
		&warrantyHandler{store: store},
		&appointmentHandler{store: store, now: now},
		&ticketHandler{store: store, now: now},
	} {
		r.handlers[h.Intent()] = h
	}
	return r
}

// For returns the handler for an intent, or nil for unknown intents.
func (r *Registry) For(intent domain.Intent) Handler {
	return r.handlers[intent]
}
