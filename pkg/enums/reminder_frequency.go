package enums

import (
	"slices"
	"time"
)

// ReminderFrequency controls how a reminder's next due time advances.
type ReminderFrequency string

const (
	ReminderFrequencyOnce    ReminderFrequency = "once"
	ReminderFrequencyDaily   ReminderFrequency = "daily"
	ReminderFrequencyWeekly  ReminderFrequency = "weekly"
	ReminderFrequencyMonthly ReminderFrequency = "monthly"
)

var validReminderFrequencies = []ReminderFrequency{
	ReminderFrequencyOnce,
	ReminderFrequencyDaily,
	ReminderFrequencyWeekly,
	ReminderFrequencyMonthly,
}

func (f ReminderFrequency) String() string {
	return string(f)
}

func (f ReminderFrequency) IsValid() bool {
	return slices.Contains(validReminderFrequencies, f)
}

// Next returns the occurrence after t for a schedule that started at anchor,
// or false for one-shot reminders. Monthly occurrences keep the anchor's day
// and fall on the last day of shorter months.
func (f ReminderFrequency) Next(anchor, t time.Time) (time.Time, bool) {
	switch f {
	case ReminderFrequencyDaily:
		return t.AddDate(0, 0, 1), true
	case ReminderFrequencyWeekly:
		return t.AddDate(0, 0, 7), true
	case ReminderFrequencyMonthly:
		if anchor.IsZero() {
			anchor = t
		}
		t = t.In(anchor.Location())
		months := (t.Year()-anchor.Year())*12 + int(t.Month()-anchor.Month())
		return addMonthsClamped(anchor, months+1), true
	default:
		return time.Time{}, false
	}
}

func addMonthsClamped(anchor time.Time, months int) time.Time {
	first := time.Date(anchor.Year(), anchor.Month()+time.Month(months), 1, 0, 0, 0, 0, anchor.Location())
	lastDay := first.AddDate(0, 1, -1).Day()
	hour, minute, sec := anchor.Clock()
	return time.Date(first.Year(), first.Month(), min(anchor.Day(), lastDay), hour, minute, sec, anchor.Nanosecond(), anchor.Location())
}

// ParseReminderFrequency converts raw input into a ReminderFrequency.
func ParseReminderFrequency(value string) (ReminderFrequency, error) {
	return parse("reminder frequency", validReminderFrequencies, value)
}
