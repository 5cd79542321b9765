package users

import (
	"strconv"
	"strings"
	"time"
)

// DisplayDateLayout is the DD.MM.YYYY form birth dates are shown and edited in.
const DisplayDateLayout = "02.01.2006"

// Clock returns the current time; tests pin it.
type Clock func() time.Time

var birthDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	DisplayDateLayout,
}

// FormatBirthDate renders the API's birth date as DD.MM.YYYY. Unparseable
// input yields "".
func FormatBirthDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format(DisplayDateLayout)
		}
	}
	return ""
}

// Age is the number of whole years between a DD.MM.YYYY birth date and now.
// Missing, malformed, non-calendar (31.02) and future dates yield "".
func Age(birth string, now time.Time) string {
	b, err := time.Parse(DisplayDateLayout, birth)
	if err != nil {
		return ""
	}

	years := now.Year() - b.Year()
	if now.Month() < b.Month() || (now.Month() == b.Month() && now.Day() < b.Day()) {
		years--
	}
	if years < 0 {
		return ""
	}
	return strconv.Itoa(years)
}
