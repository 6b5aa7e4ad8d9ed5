package tracker

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// TimeLayout is the timestamp layout used by the Tracker API.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

// DateLayout is the layout of calendar dates such as version due dates.
const DateLayout = "2006-01-02"

// Time is a timestamp in the Tracker wire format. RFC 3339 input is
// accepted as well.
type Time struct {
	time.Time
}

func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(TimeLayout))
}

func (t *Time) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		return nil
	}

	for _, layout := range []string{TimeLayout, time.RFC3339Nano} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	parsed, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", s, err)
	}
	d.Time = parsed
	return nil
}

// Duration is an ISO 8601 duration as used by worklogs, e.g. "P1DT2H30M".
// Components are kept as given; no normalization between units happens.
// Fractional components such as "PT1.5S" are allowed.
type Duration duration.Duration

// ParseDuration parses an ISO 8601 duration. At least one component is
// required, and a "T" must be followed by a time component.
func ParseDuration(s string) (Duration, error) {
	body := strings.TrimPrefix(s, "-")
	if !strings.HasPrefix(body, "P") || body == "P" || strings.HasSuffix(body, "T") {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q", s)
	}
	parsed, err := duration.Parse(body)
	if err != nil {
		return Duration{}, fmt.Errorf("invalid ISO 8601 duration %q: %w", s, err)
	}
	parsed.Negative = body != s
	return Duration(*parsed), nil
}

// DurationOf splits d into hours, minutes and seconds.
func DurationOf(d time.Duration) Duration {
	var out Duration
	if d < 0 {
		out.Negative = true
		d = -d
	}
	d = d.Round(time.Second)
	hours := d.Truncate(time.Hour)
	minutes := (d - hours).Truncate(time.Minute)
	out.Hours = hours.Hours()
	out.Minutes = minutes.Minutes()
	out.Seconds = (d - hours - minutes).Seconds()
	return out
}

// TimeDuration converts d to a time.Duration. Years, months and weeks use
// average calendar lengths.
func (d Duration) TimeDuration() time.Duration {
	return d.iso().ToTimeDuration()
}

// String returns the ISO 8601 form. A zero Duration is "PT0S".
func (d Duration) String() string {
	return d.iso().String()
}

func (d Duration) iso() *duration.Duration {
	v := duration.Duration(d)
	return &v
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
