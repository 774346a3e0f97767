package domain

import "time"

// Weekend days in DayOfWeek numbering (Monday=0). The complaint data comes
// from Israeli municipalities, where the weekend is Friday and Saturday.
const (
	Friday   = 4
	Saturday = 5
)

// Calendar holds the calendar features derived from a date.
type Calendar struct {
	Year      int
	Month     int
	Day       int
	DayOfWeek int // Monday=0 ... Sunday=6
	DayOfYear int // 1-based
	IsWeekend bool
}

// CalendarOf derives calendar features from the year, month, and day of t.
// The clock time and location of t are ignored.
func CalendarOf(t time.Time) Calendar {
	date := DateOf(t)
	dow := (int(date.Weekday()) + 6) % 7
	return Calendar{
		Year:      date.Year(),
		Month:     int(date.Month()),
		Day:       date.Day(),
		DayOfWeek: dow,
		DayOfYear: date.YearDay(),
		IsWeekend: dow == Friday || dow == Saturday,
	}
}

// DateOf truncates t to its calendar date, expressed as midnight UTC.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}
