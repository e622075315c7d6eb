package scheduler

import (
	"fmt"
	"strings"

	"shift-scheduler/demand"
	customerrors "shift-scheduler/errors"
	"shift-scheduler/models"
	"shift-scheduler/parser"
)

// maxReported bounds how many problems Verify spells out.
const maxReported = 5

// Verify checks an assignment against every rule the model encodes:
// unavailability, staffing requirements, shift length and hour caps.
// It returns nil or an error wrapping ErrInvalidAssignment.
func Verify(employees []models.Employee, cfg models.Config, a *models.Assignment) error {
	if a.Employees() != len(employees) {
		return fmt.Errorf("%w: matrix has %d employees, expected %d",
			customerrors.ErrInvalidAssignment, a.Employees(), len(employees))
	}

	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	for i, emp := range employees {
		unavailable, _, err := parser.Expand(emp)
		if err != nil {
			return err
		}
		for _, d := range models.Week {
			for _, h := range unavailable[d].Hours() {
				if a.Works(i, d, h) {
					report("%s works %s %02d:00 while unavailable", emp.Name, d, h)
				}
			}
			if n := a.DayHours(i, d); n > cfg.DailyMaxHours {
				report("%s works %d hours on %s, daily cap is %d", emp.Name, n, d, cfg.DailyMaxHours)
			}
			for _, run := range shifts(a, i, d) {
				length := run[1] - run[0]
				if length > cfg.MaxShiftLength {
					report("%s has a %d hour shift on %s from %02d:00, maximum is %d",
						emp.Name, length, d, run[0], cfg.MaxShiftLength)
				}
				if length < cfg.MinShiftLength && run[1] != models.HoursPerDay {
					report("%s has a %d hour shift on %s from %02d:00, minimum is %d",
						emp.Name, length, d, run[0], cfg.MinShiftLength)
				}
			}
		}
		if n := a.WeekHours(i); n > emp.MaxHours {
			report("%s works %d hours in the week, cap is %d", emp.Name, n, emp.MaxHours)
		}
	}

	for _, slot := range demand.Week(cfg) {
		for _, req := range slot.Requirements {
			staffed := 0
			for i, emp := range employees {
				if req.Matches(emp.Role) && a.Works(i, slot.Day, slot.Hour) {
					staffed++
				}
			}
			if staffed < req.Count {
				scope := req.Role
				if req.Total {
					scope = "total staff"
				}
				report("%s %02d:00 has %d %s, requires %d", slot.Day, slot.Hour, staffed, scope, req.Count)
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	more := ""
	if len(problems) > maxReported {
		more = fmt.Sprintf(" (and %d more)", len(problems)-maxReported)
		problems = problems[:maxReported]
	}
	return fmt.Errorf("%w: %s%s", customerrors.ErrInvalidAssignment, strings.Join(problems, "; "), more)
}

// shifts returns the maximal runs of worked hours as [start, end) pairs.
func shifts(a *models.Assignment, e int, d models.Day) [][2]int {
	var runs [][2]int
	start := -1
	for h := 0; h < models.HoursPerDay; h++ {
		switch {
		case a.Works(e, d, h) && start < 0:
			start = h
		case !a.Works(e, d, h) && start >= 0:
			runs = append(runs, [2]int{start, h})
			start = -1
		}
	}
	if start >= 0 {
		runs = append(runs, [2]int{start, models.HoursPerDay})
	}
	return runs
}
