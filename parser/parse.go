package parser

import (
	"fmt"
	"strconv"
	"strings"

	"shift-scheduler/errors"
	"shift-scheduler/models"
)

// ParseRange converts a "HH:MM-HH:MM" range into the hours it covers.
// Minutes are truncated, so "09:30-11:45" covers hours 9 and 10.
// An end hour of 0 (or 24) means end of day. Ranges that wrap past midnight
// are rejected rather than guessed at.
func ParseRange(value string) (models.HourSet, error) {
	startText, endText, ok := strings.Cut(strings.TrimSpace(value), "-")
	if !ok {
		return 0, fmt.Errorf("%w: %q has no '-' separator", errors.ErrInvalidRange, value)
	}

	start, err := parseClock(startText)
	if err != nil {
		return 0, fmt.Errorf("%w: start: %v", errors.ErrInvalidRange, err)
	}
	if start >= models.HoursPerDay {
		return 0, fmt.Errorf("%w: start hour %d out of range", errors.ErrInvalidRange, start)
	}

	end, err := parseClock(endText)
	if err != nil {
		return 0, fmt.Errorf("%w: end: %v", errors.ErrInvalidRange, err)
	}
	if end == 0 {
		end = models.HoursPerDay
	}
	if end <= start {
		return 0, fmt.Errorf("%w: %q", errors.ErrInvertedRange, value)
	}

	var hours models.HourSet
	for h := start; h < end; h++ {
		hours = hours.Add(h)
	}
	return hours, nil
}

// ParseRanges unions every range in the list. The first invalid entry aborts
// with a *errors.RangeError carrying its index.
func ParseRanges(ranges []string) (models.HourSet, error) {
	var hours models.HourSet
	for i, r := range ranges {
		set, err := ParseRange(r)
		if err != nil {
			return 0, &errors.RangeError{Index: i, Input: r, Err: err}
		}
		hours = hours.Union(set)
	}
	return hours, nil
}

// Expand parses an employee's availability for every day of the week.
func Expand(emp models.Employee) (unavailable, preferred [models.DaysPerWeek]models.HourSet, err error) {
	for _, d := range models.Week {
		day, ok := emp.Availability[d]
		if !ok {
			continue
		}
		if unavailable[d], err = expandField(emp.Name, d, "unavailable", day.Unavailable); err != nil {
			return unavailable, preferred, err
		}
		if preferred[d], err = expandField(emp.Name, d, "preferred", day.Preferred); err != nil {
			return unavailable, preferred, err
		}
	}
	return unavailable, preferred, nil
}

func expandField(name string, d models.Day, field string, ranges []string) (models.HourSet, error) {
	hours, err := ParseRanges(ranges)
	if err != nil {
		rangeErr := err.(*errors.RangeError)
		rangeErr.Employee = name
		rangeErr.Day = d
		rangeErr.Field = field
		return 0, rangeErr
	}
	return hours, nil
}

// parseClock reads "H:MM" or "HH:MM" and returns the hour.
// "24:00" is accepted as an end-of-day marker.
func parseClock(value string) (int, error) {
	hourText, minuteText, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	hour, err := strconv.Atoi(hourText)
	if err != nil {
		return 0, fmt.Errorf("hour %q: %v", hourText, err)
	}
	minute, err := strconv.Atoi(minuteText)
	if err != nil {
		return 0, fmt.Errorf("minute %q: %v", minuteText, err)
	}
	if minute < 0 || minute > 59 {
		return 0, fmt.Errorf("minute %d out of range", minute)
	}
	if hour < 0 || hour > models.HoursPerDay || (hour == models.HoursPerDay && minute != 0) {
		return 0, fmt.Errorf("hour %d out of range", hour)
	}
	return hour, nil
}
