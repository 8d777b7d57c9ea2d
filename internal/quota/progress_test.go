package quota

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ttrack/internal/store"
)

func sessionRec(t *testing.T, client, start, end string) store.Record {
	t.Helper()
	s, err := store.ParseTime(start)
	require.NoError(t, err)
	e, err := store.ParseTime(end)
	require.NoError(t, err)
	return store.Record{Client: client, Start: s, End: e}
}

func TestActualHoursSince_FoldsClientCase(t *testing.T) {
	records := []store.Record{
		sessionRec(t, "Sandisk", "2024-03-04T09:00:00", "2024-03-04T13:00:00"),
		sessionRec(t, "SANDISK", "2024-03-05T09:00:00", "2024-03-05T11:00:00"),
		sessionRec(t, "Studio", "2024-03-04T09:00:00", "2024-03-04T17:00:00"),
	}

	// Records store mixed casings; the quota side matches them all.
	got := ActualHoursSince(records, "sandisk", date(t, "2024-03-04"))

	assert.InDelta(t, 6.0, got, 1e-9)
}

func TestActualHoursSince_ExcludesRecordsBeforeRange(t *testing.T) {
	records := []store.Record{
		sessionRec(t, "Sandisk", "2024-02-29T09:00:00", "2024-02-29T17:00:00"),
		sessionRec(t, "Sandisk", "2024-03-04T09:00:00", "2024-03-04T12:00:00"),
	}

	got := ActualHoursSince(records, "sandisk", date(t, "2024-03-01"))

	assert.InDelta(t, 3.0, got, 1e-9)
}
