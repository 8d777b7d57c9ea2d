package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "sessions.csv"))
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := ParseTime(s)
	require.NoError(t, err)
	return ts
}

func rec(t *testing.T, client, start, end string) Record {
	t.Helper()
	return Record{Client: client, Start: mustTime(t, start), End: mustTime(t, end)}
}

func TestStore_Load_MissingFile(t *testing.T) {
	s := newTestStore(t)

	records, issues, err := s.Load()

	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Empty(t, issues)
}

func TestStore_Append_CreatesHeaderOnFirstWrite(t *testing.T) {
	s := newTestStore(t)

	err := s.Append(rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T17:00:00"))
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"Client,Start,End\nAcme,2024-03-04T09:00:00,2024-03-04T17:00:00\n",
		string(data),
	)
}

func TestStore_Append_ThenLoad_RoundTrips(t *testing.T) {
	s := newTestStore(t)
	first := rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T12:00:00")
	second := rec(t, "Studio", "2024-03-04T13:00:00", "2024-03-04T15:30:00")

	require.NoError(t, s.Append(first))
	require.NoError(t, s.Append(second))

	records, issues, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Len(t, records, 2)
	assert.Equal(t, first, records[0])
	assert.Equal(t, second, records[1])
}

func TestStore_Append_RejectsNonPositiveDuration(t *testing.T) {
	s := newTestStore(t)

	err := s.Append(rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T09:00:00"))

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, ErrCodeInvalidRecord, se.Code)

	// Nothing may reach disk for a rejected record.
	_, statErr := os.Stat(s.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestStore_ReplaceLast(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T12:00:00")))
	require.NoError(t, s.Append(rec(t, "Acme", "2024-03-04T13:00:00", "2024-03-04T14:00:00")))

	amended := rec(t, "Acme", "2024-03-04T13:00:00", "2024-03-04T15:00:00")
	require.NoError(t, s.ReplaceLast(amended))

	records, issues, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, issues)
	require.Len(t, records, 2)
	assert.Equal(t, rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T12:00:00"), records[0])
	assert.Equal(t, amended, records[1])
}

func TestStore_ReplaceLast_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	err := s.ReplaceLast(rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T10:00:00"))

	assert.True(t, IsEmptyStore(err))
}

func TestStore_Validate_FlagsMalformedRows(t *testing.T) {
	s := newTestStore(t)
	raw := "Client,Start,End\n" +
		"Acme,2024-03-04T09:00:00,2024-03-04T17:00:00\n" +
		"Acme,not-a-timestamp,2024-03-04T17:00:00\n" +
		"Acme,2024-03-05T09:00:00,2024-03-05T08:00:00\n" +
		"Acme,2024-03-06T09:00:00,2024-03-06T10:00:00\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(raw), 0o644))

	issues, err := s.Validate()
	require.NoError(t, err)

	require.Len(t, issues, 2)
	assert.Equal(t, ErrCodeInvalidRecord, issues[0].Code)
	assert.Equal(t, 2, issues[0].Row)
	assert.Equal(t, ErrCodeInvalidRecord, issues[1].Code)
	assert.Equal(t, 3, issues[1].Row)

	// Invalid rows are flagged, never silently aggregated: Load returns
	// only the two good records.
	records, _, err := s.Load()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestStore_Validate_FlagsMissingHeader(t *testing.T) {
	s := newTestStore(t)
	raw := "Acme,2024-03-04T09:00:00,2024-03-04T17:00:00\n" +
		"Acme,2024-03-05T09:00:00,2024-03-05T12:00:00\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(raw), 0o644))

	issues, err := s.Validate()
	require.NoError(t, err)

	require.Len(t, issues, 1)
	assert.Equal(t, ErrCodeInvalidRecord, issues[0].Code)
	assert.Contains(t, issues[0].Message, "header")
	assert.Zero(t, issues[0].Row)
}

func TestStore_Load_HeaderRowAccepted(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T17:00:00")))

	_, issues, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestStore_Fingerprint_DetectsExternalModification(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(rec(t, "Acme", "2024-03-04T09:00:00", "2024-03-04T17:00:00")))

	before, err := s.Fingerprint()
	require.NoError(t, err)

	again, err := s.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, again, "unchanged bytes must fingerprint identically")

	// A manual edit outside the tool must change the fingerprint.
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), append(data, []byte("Acme,2024-03-05T09:00:00,2024-03-05T10:00:00\n")...), 0o644))

	after, err := s.Fingerprint()
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}

func TestStore_Fingerprint_MissingFileIsStable(t *testing.T) {
	a := newTestStore(t)
	b := newTestStore(t)

	fa, err := a.Fingerprint()
	require.NoError(t, err)
	fb, err := b.Fingerprint()
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
}
