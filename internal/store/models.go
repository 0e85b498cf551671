package store

import "time"

// dateOnly is the format used for review and reminder dates. Storing dates
// as YYYY-MM-DD text keeps string comparison equal to date comparison.
const dateOnly = "2006-01-02"

func dateStr(t time.Time) string {
	return t.UTC().Format(dateOnly)
}

func parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateOnly, s, time.UTC)
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// midnightUTC truncates t to the start of its UTC day.
func midnightUTC(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
