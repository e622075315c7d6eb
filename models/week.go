package models

import (
	"math/bits"
	"strconv"
	"strings"
)

// Day is a day of the scheduling week. Monday is day 0.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

const (
	DaysPerWeek = 7
	HoursPerDay = 24
)

var dayNames = [DaysPerWeek]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

// Week lists the days in schedule order.
var Week = [DaysPerWeek]Day{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

func (d Day) String() string {
	if d < 0 || int(d) >= DaysPerWeek {
		return "Day(" + strconv.Itoa(int(d)) + ")"
	}
	return dayNames[d]
}

// ParseDay resolves an English day name, ignoring case and surrounding space.
func ParseDay(name string) (Day, bool) {
	name = strings.TrimSpace(name)
	for i, n := range dayNames {
		if strings.EqualFold(n, name) {
			return Day(i), true
		}
	}
	return 0, false
}

// HourSet is a set of hours of the day (0-23).
type HourSet uint32

// Add returns the set with hour h included. Out of range hours are ignored.
func (s HourSet) Add(h int) HourSet {
	if h < 0 || h >= HoursPerDay {
		return s
	}
	return s | 1<<uint(h)
}

func (s HourSet) Has(h int) bool {
	if h < 0 || h >= HoursPerDay {
		return false
	}
	return s&(1<<uint(h)) != 0
}

// Union returns every hour present in either set.
func (s HourSet) Union(o HourSet) HourSet {
	return s | o
}

func (s HourSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

// Hours returns the members in ascending order.
func (s HourSet) Hours() []int {
	hours := make([]int, 0, s.Len())
	for h := 0; h < HoursPerDay; h++ {
		if s.Has(h) {
			hours = append(hours, h)
		}
	}
	return hours
}
