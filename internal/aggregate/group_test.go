package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ttrack/internal/store"
)

func TestGroupByDay(t *testing.T) {
	records := []store.Record{
		rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T11:00:00"),
		rec(t, "Acme", "2024-03-04T13:00:00", "2024-03-04T14:30:00"),
		rec(t, "Acme", "2024-03-05T09:00:00", "2024-03-05T10:00:00"),
		rec(t, "Studio", "2024-03-04T09:00:00", "2024-03-04T12:00:00"),
	}

	got := GroupByDay(records)

	require.Len(t, got, 2)
	assert.Equal(t, map[time.Time]time.Duration{
		mustTime(t, "2024-03-04T00:00:00"): 3*time.Hour + 30*time.Minute,
		mustTime(t, "2024-03-05T00:00:00"): time.Hour,
	}, got["Acme"])
	assert.Equal(t, map[time.Time]time.Duration{
		mustTime(t, "2024-03-04T00:00:00"): 3 * time.Hour,
	}, got["Studio"])
}

func TestGroupByWeek_KeyedByMonday(t *testing.T) {
	records := []store.Record{
		rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T11:00:00"), // Mon
		rec(t, "Acme", "2024-03-08T09:00:00", "2024-03-08T10:00:00"), // Fri, same week
		rec(t, "Acme", "2024-03-11T09:00:00", "2024-03-11T12:00:00"), // next Mon
	}

	got := GroupByWeek(records)

	assert.Equal(t, map[time.Time]time.Duration{
		mustTime(t, "2024-03-04T00:00:00"): 3 * time.Hour,
		mustTime(t, "2024-03-11T00:00:00"): 3 * time.Hour,
	}, got["Acme"])
}

func TestGroupByMonth_KeyedByFirstOfMonth(t *testing.T) {
	records := []store.Record{
		rec(t, "Acme", "2024-02-27T09:00:00", "2024-02-27T17:00:00"),
		rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T11:00:00"),
		rec(t, "Acme", "2024-03-20T09:00:00", "2024-03-20T10:00:00"),
	}

	got := GroupByMonth(records)

	assert.Equal(t, map[time.Time]time.Duration{
		mustTime(t, "2024-02-01T00:00:00"): 8 * time.Hour,
		mustTime(t, "2024-03-01T00:00:00"): 3 * time.Hour,
	}, got["Acme"])
}

func TestAverageHoursPerDay(t *testing.T) {
	records := []store.Record{
		rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T17:00:00"), // 8h
		rec(t, "Acme", "2024-03-05T09:00:00", "2024-03-05T13:00:00"), // 4h
		rec(t, "Studio", "2024-03-04T09:00:00", "2024-03-04T10:00:00"),
	}

	got := AverageHoursPerDay(records)

	assert.InDelta(t, 6.0, got["Acme"], 1e-9)
	assert.InDelta(t, 1.0, got["Studio"], 1e-9)
}
