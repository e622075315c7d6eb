// Package demand turns layered staffing configuration into concrete
// per-hour requirements.
package demand

import "shift-scheduler/models"

// Resolve returns the staffing requirements for day d at hour h.
//
// The first matching tier wins:
//  1. a per-hour override given as a role mapping (one requirement per role)
//  2. a per-hour override given as a head count (one total requirement)
//  3. the global floor as a role mapping (roles with a positive count)
//  4. the global floor as a head count (one total requirement)
//
// Hours outside business hours have no requirements.
func Resolve(cfg models.Config, d models.Day, h int) []models.Requirement {
	if !cfg.BusinessHours.Contains(h) {
		return nil
	}

	if level, ok := cfg.Override(d, h); ok {
		if level.IsPerRole() {
			return perRole(level, true)
		}
		return []models.Requirement{{Total: true, Count: level.Count()}}
	}

	if cfg.GlobalFloor.IsPerRole() {
		return perRole(cfg.GlobalFloor, false)
	}
	return []models.Requirement{{Total: true, Count: cfg.GlobalFloor.Count()}}
}

func perRole(level models.StaffLevel, keepZero bool) []models.Requirement {
	roles := level.RoleNames()
	reqs := make([]models.Requirement, 0, len(roles))
	for _, role := range roles {
		n := level.RoleCount(role)
		if n <= 0 && !keepZero {
			continue
		}
		reqs = append(reqs, models.Requirement{Role: role, Count: n})
	}
	return reqs
}

// Slot is one business hour and its resolved requirements.
type Slot struct {
	Day          models.Day
	Hour         int
	Requirements []models.Requirement
}

// Week resolves every business hour of the week, Monday first and hours
// ascending. Builders and diagnostics share this order.
func Week(cfg models.Config) []Slot {
	start := max(cfg.BusinessHours.Start, 0)
	end := min(cfg.BusinessHours.End, models.HoursPerDay)

	var slots []Slot
	for _, d := range models.Week {
		for h := start; h < end; h++ {
			slots = append(slots, Slot{Day: d, Hour: h, Requirements: Resolve(cfg, d, h)})
		}
	}
	return slots
}
