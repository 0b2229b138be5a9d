package domain

import (
	"fmt"
	"time"
)

// CodePrefix starts every order code.
const CodePrefix = "PM"

// FormatCode renders the human readable code PM-YYYYMMDD-NNN.
func FormatCode(orderDate time.Time, sequence int64) string {
	return fmt.Sprintf("%s-%s-%03d", CodePrefix, orderDate.Format("20060102"), sequence)
}

// NormalizeDate truncates t to midnight in loc.
func NormalizeDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
