package pawsdk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFeedingStatusFor(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		lastFed string
		want    FeedingStatus
	}{
		{"2025-03-01T19:00:00Z", FeedingFed},
		{"2025-03-01T12:00:01", FeedingFed},
		{"2025-03-01T12:00:00", FeedingDue},
		{"2025-03-01T08:00:01.123456", FeedingDue},
		{"2025-03-01T08:00:00", FeedingOverdue},
		{"2025-02-27", FeedingOverdue},
		{"", FeedingUnknown},
		{"yesterday", FeedingUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.lastFed, func(t *testing.T) {
			require.Equal(t, tt.want, FeedingStatusFor(tt.lastFed, now))
		})
	}
}

func TestVaccineStatusFor(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, VaccineOverdue, VaccineStatusFor("2025-02-28", now))
	require.Equal(t, VaccineDueSoon, VaccineStatusFor("2025-03-01", now))
	require.Equal(t, VaccineDueSoon, VaccineStatusFor("2025-03-31", now))
	require.Equal(t, VaccineUpToDate, VaccineStatusFor("2025-04-01", now))
	require.Equal(t, VaccineUnknown, VaccineStatusFor("", now))
}

func TestLastFed(t *testing.T) {
	t.Parallel()

	logs := []FeedingLog{
		{FedAt: "2025-03-01T08:00:00"},
		{FedAt: "2025-03-01T18:30:00"},
		{FedAt: "garbage"},
		{FedAt: "2025-02-28T23:00:00"},
	}
	require.Equal(t, "2025-03-01T18:30:00", LastFed(logs))
	require.Empty(t, LastFed(nil))
}
