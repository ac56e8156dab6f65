package pawsdk

import (
	"strings"
	"time"
)

type FeedingStatus string

const (
	FeedingFed     FeedingStatus = "fed"
	FeedingDue     FeedingStatus = "due"
	FeedingOverdue FeedingStatus = "overdue"
	FeedingUnknown FeedingStatus = "unknown"
)

type VaccineStatus string

const (
	VaccineUpToDate VaccineStatus = "up_to_date"
	VaccineDueSoon  VaccineStatus = "due_soon"
	VaccineOverdue  VaccineStatus = "overdue"
	VaccineUnknown  VaccineStatus = "unknown"
)

const (
	fedWindow     = 8 * time.Hour
	dueWindow     = 12 * time.Hour
	dueSoonWindow = 30 * 24 * time.Hour
)

// FeedingStatusFor derives the dashboard badge from the last feeding time.
func FeedingStatusFor(lastFed string, now time.Time) FeedingStatus {
	t, ok := ParseTime(lastFed)
	if !ok {
		return FeedingUnknown
	}

	since := now.Sub(t)
	switch {
	case since < fedWindow:
		return FeedingFed
	case since < dueWindow:
		return FeedingDue
	default:
		return FeedingOverdue
	}
}

// LastFed returns the most recent fed_at among logs, or "" when none parse.
func LastFed(logs []FeedingLog) string {
	var (
		latest    time.Time
		latestRaw string
	)
	for _, l := range logs {
		t, ok := ParseTime(l.FedAt)
		if ok && t.After(latest) {
			latest, latestRaw = t, l.FedAt
		}
	}
	return latestRaw
}

// VaccineStatusFor derives the badge from a vaccine's next due date.
func VaccineStatusFor(nextDue string, now time.Time) VaccineStatus {
	t, ok := ParseTime(nextDue)
	if !ok {
		return VaccineUnknown
	}

	until := t.Sub(now)
	switch {
	case until < 0:
		return VaccineOverdue
	case until <= dueSoonWindow:
		return VaccineDueSoon
	default:
		return VaccineUpToDate
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime parses the timestamp formats the API emits. Values without a
// zone are taken as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
