package notify

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatAppointmentDate expands "2025-03-01" to "Saturday, March 1, 2025".
// Anything that does not parse as a calendar date is returned unchanged.
func FormatAppointmentDate(date string) string {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return d.Format("Monday, January 2, 2006")
}

// FormatAppointmentTime converts 24-hour "HH:MM" to "H:MM AM/PM". Strings
// without a colon pass through verbatim, as do colon-bearing strings whose
// hour is not a number.
func FormatAppointmentTime(t string) string {
	hourPart, rest, ok := strings.Cut(t, ":")
	if !ok {
		return t
	}
	hour, err := strconv.Atoi(strings.TrimSpace(hourPart))
	if err != nil || hour < 0 || hour > 23 {
		return t
	}
	minutes := rest
	if len(minutes) > 2 {
		minutes = minutes[:2]
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	hour12 := hour % 12
	if hour12 == 0 {
		hour12 = 12
	}
	return fmt.Sprintf("%d:%s %s", hour12, minutes, period)
}

// FormatAppointmentWhen joins the two, e.g. "Saturday, March 1, 2025 at 9:00 AM".
func FormatAppointmentWhen(date, t string) string {
	return fmt.Sprintf("%s at %s", FormatAppointmentDate(date), FormatAppointmentTime(t))
}
