// Package diagnostics explains why a schedule could not be found by checking
// raw availability against demand, one business hour at a time.
package diagnostics

import (
	"fmt"

	"shift-scheduler/demand"
	customerrors "shift-scheduler/errors"
	"shift-scheduler/models"
	"shift-scheduler/parser"
)

// GenericMessage is returned when every requirement can be covered by the
// employees available at that hour, so the conflict lies in shift length or
// hour caps, which this check does not model.
const GenericMessage = "Infeasible: every staffing requirement can be covered by available employees hour by hour; " +
	"the conflict comes from shift-length or hour-cap rules (min_shift_length, max_shift_length, daily_max_hours, max_hours)"

// Diagnose returns the first requirement, Monday first and hours ascending,
// that needs more employees than are available. It never returns nil: with
// no such shortfall the error carries GenericMessage and no Violation.
func Diagnose(employees []models.Employee, cfg models.Config) *customerrors.DiagnosticError {
	checker := newChecker(employees)
	for _, slot := range demand.Week(cfg) {
		for _, req := range slot.Requirements {
			if v, short := checker.check(slot.Day, slot.Hour, req); short {
				return &customerrors.DiagnosticError{Message: Message(v), Violation: &v}
			}
		}
	}
	return &customerrors.DiagnosticError{Message: GenericMessage}
}

// All lists every shortfall in the same order Diagnose searches.
func All(employees []models.Employee, cfg models.Config) []models.Violation {
	checker := newChecker(employees)
	var found []models.Violation
	for _, slot := range demand.Week(cfg) {
		for _, req := range slot.Requirements {
			if v, short := checker.check(slot.Day, slot.Hour, req); short {
				found = append(found, v)
			}
		}
	}
	return found
}

// Message renders a violation for people.
func Message(v models.Violation) string {
	who := v.Role
	if v.Total {
		who = "total staff"
	}
	return fmt.Sprintf("Infeasible: %s at %02d:00 requires %d %s, but only %d available",
		v.Day, v.Hour, v.Required, who, v.Available)
}

type checker struct {
	employees   []models.Employee
	unavailable [][models.DaysPerWeek]models.HourSet
}

func newChecker(employees []models.Employee) *checker {
	c := &checker{
		employees:   employees,
		unavailable: make([][models.DaysPerWeek]models.HourSet, len(employees)),
	}
	for i, emp := range employees {
		// Unparseable availability is rejected by the loader; here it
		// simply blocks nothing.
		if blocked, _, err := parser.Expand(emp); err == nil {
			c.unavailable[i] = blocked
		}
	}
	return c
}

func (c *checker) check(d models.Day, h int, req models.Requirement) (models.Violation, bool) {
	available := 0
	for i, emp := range c.employees {
		if req.Matches(emp.Role) && !c.unavailable[i][d].Has(h) {
			available++
		}
	}
	v := models.Violation{
		Day:       d,
		Hour:      h,
		Role:      req.Role,
		Total:     req.Total,
		Required:  req.Count,
		Available: available,
	}
	return v, req.Count > available
}
