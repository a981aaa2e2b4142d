// Package intent classifies user messages into the closed business intent
// set. Classification is a pure function over the message and a static,
// prioritized rule table: reference patterns are checked first, then keyword
// groups in fixed order; the first matching rule wins.
package intent

import (
	"regexp"
	"strings"

	"github.com/careline-ai/careline/internal/domain"
)

// rule maps a trigger to an intent. Either pattern or keywords is set.
type rule struct {
	intent   domain.Intent
	pattern  *regexp.Regexp
	keywords []string
}

// rules is evaluated top to bottom. Identifier patterns outrank keywords:
// a message quoting an invoice reference is an invoice question even if it
// also mentions an order.
var rules = []rule{
	{intent: domain.IntentOrderStatus, pattern: regexp.MustCompile(`\bORD-?\d{3,}\b`)},
	{intent: domain.IntentInvoice, pattern: regexp.MustCompile(`\bINV-?\d{3,}\b`)},
	{intent: domain.IntentSupportTicket, pattern: regexp.MustCompile(`\bTKT-?\d{3,}\b`)},

	{intent: domain.IntentOrderStatus, keywords: []string{"order", "delivery", "tracking", "ship"}},
	{intent: domain.IntentAppointment, keywords: []string{"appointment", "schedule", "maintenance", "calibration", "install"}},
	{intent: domain.IntentWarranty, keywords: []string{"warranty", "warranties", "amc", "coverage"}},
	{intent: domain.IntentSupportTicket, keywords: []string{"complaint", "ticket", "issue", "problem"}},
	{intent: domain.IntentInvoice, keywords: []string{"invoice", "payment", "bill", "paid", "outstanding"}},
}

// Classifier assigns exactly one intent per message.
type Classifier struct{}

// New creates a classifier.
func New() *Classifier {
	return &Classifier{}
}

// Classify maps a message to an intent. Empty or whitespace-only input
// classifies as unknown; malformed input never raises.
func (c *Classifier) Classify(message string) domain.Intent {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		return domain.IntentUnknown
	}

	upper := strings.ToUpper(trimmed)
	lower := strings.ToLower(trimmed)

	for _, r := range rules {
		if r.pattern != nil {
			if r.pattern.MatchString(upper) {
				return r.intent
			}
			continue
		}
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.intent
			}
		}
	}

	return domain.IntentUnknown
}
