package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMaxHours is the weekly cap applied when an employee record omits one.
const DefaultMaxHours = 40

// Employee is one schedulable person. It is shared across packages and is
// not modified during a solve.
type Employee struct {
	Name     string
	Role     string
	MaxHours int
	// HourlyRate is optional and only feeds the labour cost summary.
	HourlyRate   decimal.Decimal
	Availability map[Day]DayAvailability
}

// DayAvailability holds the raw "HH:MM-HH:MM" ranges for one day.
type DayAvailability struct {
	Unavailable []string
	Preferred   []string
}

// HourWindow is the half-open hour interval [Start, End).
type HourWindow struct {
	Start int
	End   int
}

// Contains reports whether hour h falls inside the window.
func (w HourWindow) Contains(h int) bool {
	return h >= w.Start && h < w.End
}

// Objective selects what the solver optimises.
type Objective string

const (
	// ObjectiveCost minimises total scheduled employee-hours.
	ObjectiveCost Objective = "cost"
	// ObjectivePreference maximises hours scheduled inside preferred ranges.
	ObjectivePreference Objective = "preference"
)

// DefaultTimeLimit bounds a solve when the configuration does not.
const DefaultTimeLimit = 10 * time.Second

// Config is the normalised scheduling configuration.
type Config struct {
	BusinessHours  HourWindow
	MinShiftLength int
	MaxShiftLength int
	DailyMaxHours  int
	GlobalFloor    StaffLevel
	// Demand holds per-day overrides keyed by hour of day.
	Demand    [DaysPerWeek]map[int]StaffLevel
	Objective Objective
	TimeLimit time.Duration
}

// Override returns the explicit demand for day d at hour h, if any.
func (c Config) Override(d Day, h int) (StaffLevel, bool) {
	if d < 0 || int(d) >= DaysPerWeek || c.Demand[d] == nil {
		return StaffLevel{}, false
	}
	level, ok := c.Demand[d][h]
	return level, ok
}

// Requirement is a resolved staffing minimum for one day and hour.
// Total requirements count every employee; otherwise only Role counts.
type Requirement struct {
	Role  string
	Total bool
	Count int
}

// Matches reports whether an employee with the given role counts toward r.
func (r Requirement) Matches(role string) bool {
	return r.Total || r.Role == role
}

// Assignment is the dense work matrix of one solve, indexed by
// employee, day and hour.
type Assignment struct {
	cells [][DaysPerWeek][HoursPerDay]bool
}

// NewAssignment returns an empty matrix for n employees.
func NewAssignment(n int) *Assignment {
	return &Assignment{cells: make([][DaysPerWeek][HoursPerDay]bool, n)}
}

// Employees returns the number of employee rows.
func (a *Assignment) Employees() int {
	return len(a.cells)
}

func (a *Assignment) Set(e int, d Day, h int, working bool) {
	a.cells[e][d][h] = working
}

func (a *Assignment) Works(e int, d Day, h int) bool {
	return a.cells[e][d][h]
}

// DayHours returns how many hours employee e works on day d.
func (a *Assignment) DayHours(e int, d Day) int {
	n := 0
	for _, w := range a.cells[e][d] {
		if w {
			n++
		}
	}
	return n
}

// WeekHours returns how many hours employee e works across the week.
func (a *Assignment) WeekHours(e int) int {
	n := 0
	for _, d := range Week {
		n += a.DayHours(e, d)
	}
	return n
}

// ScheduleResult is the externally visible outcome of a successful solve:
// one entry per day, Monday first.
type ScheduleResult []DaySchedule

// DaySchedule lists the staffed hours of one day.
type DaySchedule struct {
	Day   string     `json:"day"`
	Hours []HourSlot `json:"hours"`
}

// HourSlot maps role to the names working that hour.
type HourSlot struct {
	Time  string              `json:"time"`
	Roles map[string][]string `json:"roles"`
}

// Violation is a single staffing requirement that raw availability cannot cover.
type Violation struct {
	Day       Day
	Hour      int
	Role      string
	Total     bool
	Required  int
	Available int
}
