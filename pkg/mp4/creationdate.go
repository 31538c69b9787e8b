package mp4

import (
	"regexp"
	"time"

	"github.com/pkg/errors"
)

// creationDateLayouts enumerates the accepted input forms (§4.8): ExifTool
// style with a colon-separated date and a space or 'T' date/time separator,
// and the ISO-ish form with dash-separated date, each with or without a
// colon in the timezone offset.
var creationDateLayouts = []string{
	"2006:01:02T15:04:05-0700",
	"2006:01:02T15:04:05-07:00",
	"2006:01:02 15:04:05-0700",
	"2006:01:02 15:04:05-07:00",
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05-07:00",
}

// creationDatePattern is a coarse pre-check so inputs that obviously don't
// match any accepted form fail fast with UnsupportedDateFormat rather than
// falling through every layout.
var creationDatePattern = regexp.MustCompile(
	`^\d{4}[:-]\d{2}[:-]\d{2}[ T]\d{2}:\d{2}:\d{2}[+-]\d{2}:?\d{2}$`,
)

// NormalizeCreationDate parses a creation-date string in either accepted
// form and renders it canonically as YYYY-MM-DDTHH:MM:SS±HHMM (§4.8).
// Idempotent: normalizing an already-canonical string returns it unchanged.
func NormalizeCreationDate(s string) (string, error) {
	if !creationDatePattern.MatchString(s) {
		return "", errors.WithStack(ErrUnsupportedDateFormat)
	}
	for _, layout := range creationDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatCreationDate(t), nil
		}
	}
	return "", errors.WithStack(ErrUnsupportedDateFormat)
}

// FormatCreationDate renders t as YYYY-MM-DDTHH:MM:SS±HHMM, the canonical
// form written to com.apple.quicktime.creationdate (§3, §4.8).
func FormatCreationDate(t time.Time) string {
	return t.Format("2006-01-02T15:04:05-0700")
}
