package services

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var localDateTime = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2})(?::(\d{2})(?:\.(\d{1,9}))?)?$`)

// ScheduleNormalizer turns the customer's local wall-clock string into the
// UTC instant that is stored. With Location set the conversion is zone
// aware, otherwise the fixed Offset is subtracted.
type ScheduleNormalizer struct {
	Offset   time.Duration
	Location *time.Location
	Now      func() time.Time
}

func NewScheduleNormalizer(offsetHours int, timezone string) (*ScheduleNormalizer, error) {
	n := &ScheduleNormalizer{
		Offset: time.Duration(offsetHours) * time.Hour,
		Now:    time.Now,
	}
	if timezone != "" {
		loc, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load schedule timezone %q: %w", timezone, err)
		}
		n.Location = loc
	}
	return n, nil
}

// ToStorageInstant parses "YYYY-MM-DDTHH:mm[:ss[.fff]]" (or space separated).
func (n *ScheduleNormalizer) ToStorageInstant(local string) (time.Time, error) {
	m := localDateTime.FindStringSubmatch(local)
	if m == nil {
		return time.Time{}, ErrMalformedTimestamp
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second := 0
	if m[6] != "" {
		second, _ = strconv.Atoi(m[6])
	}
	nanos := 0
	if m[7] != "" {
		frac := m[7]
		for len(frac) < 9 {
			frac += "0"
		}
		nanos, _ = strconv.Atoi(frac)
	}

	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, ErrMalformedTimestamp
	}

	wall := time.Date(year, time.Month(month), day, hour, minute, second, nanos, time.UTC)
	if wall.Day() != day {
		return time.Time{}, ErrMalformedTimestamp
	}

	if n.Location != nil {
		return time.Date(year, time.Month(month), day, hour, minute, second, nanos, n.Location).UTC(), nil
	}
	return wall.Add(-n.Offset), nil
}

// Future normalizes local and requires the instant to be after now.
func (n *ScheduleNormalizer) Future(local string) (time.Time, error) {
	instant, err := n.ToStorageInstant(local)
	if err != nil {
		return time.Time{}, NewValidationError("scheduled_at", err.Error())
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	if !instant.After(now().UTC()) {
		return time.Time{}, NewValidationError("scheduled_at", "scheduled_at must be a date after now")
	}
	return instant, nil
}

// Zone is the location customers' wall-clock times are read in.
func (n *ScheduleNormalizer) Zone() *time.Location {
	if n.Location != nil {
		return n.Location
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", int(n.Offset.Hours())), int(n.Offset.Seconds()))
}
