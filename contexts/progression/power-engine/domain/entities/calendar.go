package entities

import "time"

// DayLayout is the canonical text form of a ledger day.
const DayLayout = "2006-01-02"

// DateOf truncates a timestamp to its UTC calendar day.
func DateOf(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	utc := t.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day(), 0, 0, 0, 0, time.UTC)
}

func DayKey(t time.Time) string {
	return DateOf(t).Format(DayLayout)
}

func ParseDay(value string) (time.Time, error) {
	parsed, err := time.Parse(DayLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(parsed), nil
}

func AddDays(day time.Time, n int) time.Time {
	return DateOf(day).AddDate(0, 0, n)
}
