package quota

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeHolidays(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holidays.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHolidays(t *testing.T) {
	path := writeHolidays(t, `# public holidays 2024
2024-01-01 New Year's Day

2024-03-29 Good Friday
2024-12-25
`)

	holidays, err := LoadHolidays(path)
	require.NoError(t, err)

	assert.Len(t, holidays, 3)
	assert.True(t, holidays.Contains(date(t, "2024-01-01")))
	assert.True(t, holidays.Contains(date(t, "2024-03-29")), "trailing text after the date is ignored")
	assert.True(t, holidays.Contains(date(t, "2024-12-25")))
	assert.False(t, holidays.Contains(date(t, "2024-03-04")))
}

func TestLoadHolidays_MissingFileIsEmpty(t *testing.T) {
	holidays, err := LoadHolidays(filepath.Join(t.TempDir(), "absent.txt"))

	require.NoError(t, err)
	assert.Empty(t, holidays)
}

func TestLoadHolidays_UnparsableDate(t *testing.T) {
	path := writeHolidays(t, "2024-01-01\nnot-a-date something\n")

	_, err := LoadHolidays(path)

	assert.ErrorContains(t, err, "line 2")
}

func TestBusinessRangeEnd(t *testing.T) {
	tests := []struct {
		name string
		from string
		now  string
		want string
	}{
		{"weekday clamps to itself", "2024-03-04", "2024-03-06", "2024-03-06"},
		{"saturday clamps back to friday", "2024-03-04", "2024-03-09", "2024-03-08"},
		{"sunday clamps back to friday", "2024-03-04", "2024-03-10", "2024-03-08"},
		{"weekend-only range falls back to now", "2024-03-09", "2024-03-10", "2024-03-10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BusinessRangeEnd(date(t, tt.from), date(t, tt.now))
			assert.Equal(t, date(t, tt.want), got)
		})
	}
}
