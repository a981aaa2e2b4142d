package handlers

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/careline-ai/careline/internal/domain"
)

// Shared natural-language parsing helpers for the per-intent handlers.

var (
	referenceRe = regexp.MustCompile(`\b[A-Z]{2,5}-?\d{3,}\b`)
	dateISORe   = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	numberRe    = regexp.MustCompile(`\b(\d+)\b`)
)

// extractReference pulls the first order/invoice/ticket style reference
// (e.g. ORD-1000) from a message.
func extractReference(msg string) string {
	return referenceRe.FindString(strings.ToUpper(msg))
}

// parseLimit finds a list size in phrases like "last 5" or "top 10".
// Returns def when no usable number appears.
func parseLimit(msg string, def, hardMax int) int {
	for _, m := range numberRe.FindAllString(msg, -1) {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if n >= 1 && n <= hardMax {
			return n
		}
	}
	return def
}

// extractStatus returns the first allowed status word present in the message.
func extractStatus(msg string, allowed []string) string {
	lower := strings.ToLower(msg)
	for _, st := range allowed {
		if strings.Contains(lower, st) {
			return st
		}
	}
	return ""
}

// parseDateRange understands "last week", "last month", "today", "yesterday"
// and "between YYYY-MM-DD and YYYY-MM-DD". Returns nil when no range is
// expressed. The To bound is exclusive.
func parseDateRange(msg string, now time.Time) *domain.DateRange {
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "last week"):
		return &domain.DateRange{From: now.AddDate(0, 0, -7), To: now}
	case strings.Contains(lower, "last month"):
		return &domain.DateRange{From: now.AddDate(0, 0, -30), To: now}
	case strings.Contains(lower, "yesterday"):
		start := startOfDay(now.AddDate(0, 0, -1))
		return &domain.DateRange{From: start, To: startOfDay(now)}
	case strings.Contains(lower, "today"):
		return &domain.DateRange{From: startOfDay(now), To: now}
	}

	if strings.Contains(lower, "between") && strings.Contains(lower, "and") {
		dates := dateISORe.FindAllString(lower, 2)
		if len(dates) == 2 {
			from, err1 := time.Parse("2006-01-02", dates[0])
			to, err2 := time.Parse("2006-01-02", dates[1])
			if err1 == nil && err2 == nil && from.Before(to) {
				return &domain.DateRange{From: from, To: to.AddDate(0, 0, 1)}
			}
		}
	}

	return nil
}

// parseISODate returns the first ISO date in the message, if any.
func parseISODate(msg string) (time.Time, bool) {
	m := dateISORe.FindString(msg)
	if m == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", m)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Metric inference over the message wording.

func wantsCount(msg string) bool {
	return containsAny(msg, "how many", "count", "number of")
}

func wantsLatest(msg string) bool {
	return containsAny(msg, "latest", "recent", "last order", "last invoice", "most recent")
}

func wantsList(msg string) bool {
	return containsAny(msg, "list", "show", "upcoming")
}

func wantsSum(msg string) bool {
	return containsAny(msg, "sum", "total", "amount due", "total due", "outstanding")
}

// equipmentMention reports the first recognizable equipment name in the
// message, if any.
func equipmentMention(msg string) (string, bool) {
	lower := strings.ToLower(msg)
	for _, name := range []string{
		"ventilator", "defibrillator", "infusion pump", "patient monitor",
		"x-ray", "ultrasound", "ecg", "mri", "ct scanner", "autoclave",
	} {
		if strings.Contains(lower, name) {
			return name, true
		}
	}
	return "", false
}

func containsAny(msg string, words ...string) bool {
	lower := strings.ToLower(msg)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func fmtDate(t time.Time) string {
	return t.Format("2006-01-02")
}
