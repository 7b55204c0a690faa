package common

import "time"

// Time layouts shared by the text logs and the files written next to them.
const (
	// LayoutLogLine prefixes every run log and site log line, e.g. "05-03-24, 14:07".
	LayoutLogLine = "02-01-06, 15:04"
	// LayoutFileStamp names snapshot and unsent-message files, e.g. "05-03-24 T 14-07-09".
	LayoutFileStamp = "02-01-06 T 15-04-05"
	LayoutRFC3339   = time.RFC3339
)

// FormatLogLine renders msg with the shared log line prefix.
func FormatLogLine(t time.Time, msg string) string {
	return t.Format(LayoutLogLine) + ": " + msg
}

// FormatFileStamp renders t for use in a file name.
func FormatFileStamp(t time.Time) string {
	return t.Format(LayoutFileStamp)
}

// FormatTimeOptional formats a time with the given layout, returning an empty string for zero times
func FormatTimeOptional(t time.Time, layout string) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(layout)
}
