package cli

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ttrack/internal/store"
)

func TestStatusNamedClient(t *testing.T) {
	dir := t.TempDir()
	seedLog(t, dir, []store.Record{
		{Client: "Acme", Start: day(2020, 1, 6, 9, 0), End: day(2020, 1, 6, 17, 0)},
	})

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", DataDir: dir}
	cmd := NewStatusCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"Acme"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Client: Acme")
	assert.NotContains(t, output, "Session:")
	// The 2020 session is long out of every current bucket.
	assert.Contains(t, output, "Today: 0.0h")
	assert.Contains(t, output, "Week: 0.0h")
	assert.Contains(t, output, "Month: 0.0h")
}

func TestStatusUsesRunningClient(t *testing.T) {
	dir := t.TempDir()

	start := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	marker := store.NewMarker(
		filepath.Join(dir, markerFile),
		filepath.Join(dir, heartbeatFile),
	)
	require.NoError(t, marker.Save("Acme", start))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", DataDir: dir}
	cmd := NewStatusCommand(rootOpts)
	cmd.SetOut(buf)

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Client: Acme")
	assert.Contains(t, output, "Session: ")
	assert.Contains(t, output, "started "+store.FormatTime(start))
}

func TestStatusLiveIntervalCountsTowardTotals(t *testing.T) {
	dir := t.TempDir()

	start := time.Now().Add(-1 * time.Hour).Truncate(time.Second)
	marker := store.NewMarker(
		filepath.Join(dir, markerFile),
		filepath.Join(dir, heartbeatFile),
	)
	require.NoError(t, marker.Save("Acme", start))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", DataDir: dir}
	cmd := NewStatusCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"Acme"})

	err := cmd.Execute()
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "Week: 1.0h")
}

func TestStatusOtherClientIgnoresRunningSession(t *testing.T) {
	dir := t.TempDir()

	marker := store.NewMarker(
		filepath.Join(dir, markerFile),
		filepath.Join(dir, heartbeatFile),
	)
	require.NoError(t, marker.Save("Acme", time.Now().Add(-time.Hour).Truncate(time.Second)))

	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", DataDir: dir}
	cmd := NewStatusCommand(rootOpts)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"Initech"})

	err := cmd.Execute()
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "Client: Initech")
	assert.NotContains(t, output, "Session:")
	assert.Contains(t, output, "Today: 0.0h")
}

func TestStatusNoClientNoMarker(t *testing.T) {
	buf := &bytes.Buffer{}
	rootOpts := &RootOptions{Format: "text", DataDir: t.TempDir()}
	cmd := NewStatusCommand(rootOpts)
	cmd.SetOut(buf)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "no timer running")
}
