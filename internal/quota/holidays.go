package quota

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"
)

// holidayLayout is the date format of holiday file entries.
const holidayLayout = "2006-01-02"

// Holidays is the set of calendar dates that contribute zero expected
// hours regardless of weekday schedule. Keys are "YYYY-MM-DD" strings so
// membership is independent of time-of-day and location quirks.
type Holidays map[string]struct{}

// Contains reports whether t's local calendar date is a holiday.
func (h Holidays) Contains(t time.Time) bool {
	_, ok := h[t.Format(holidayLayout)]
	return ok
}

// LoadHolidays reads a newline-delimited holiday file.
//
// Each entry is a YYYY-MM-DD date; anything after the date on the same
// line (a holiday's name) is ignored. Blank lines and lines starting
// with '#' are skipped. A missing file is an empty set, not an error.
func LoadHolidays(path string) (Holidays, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Holidays{}, nil
		}
		return nil, fmt.Errorf("open holiday file: %w", err)
	}
	defer f.Close()

	holidays := Holidays{}
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		dateField := strings.Fields(line)[0]
		d, err := time.Parse(holidayLayout, dateField)
		if err != nil {
			return nil, fmt.Errorf("holiday file %s line %d: unparsable date %q", path, lineNum, dateField)
		}
		holidays[d.Format(holidayLayout)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read holiday file: %w", err)
	}
	return holidays, nil
}
