package scheduler

import (
	"fmt"

	"shift-scheduler/demand"
	customerrors "shift-scheduler/errors"
	"shift-scheduler/models"
	"shift-scheduler/parser"
	"shift-scheduler/solver"
)

// Constraint families, used for row names and metrics.
const (
	familyAvailability = "availability"
	familyDemand       = "demand"
	familyMinShift     = "min_shift"
	familyMaxShift     = "max_shift"
	familyDailyCap     = "daily_cap"
	familyWeeklyCap    = "weekly_cap"
)

// Plan is a built model together with the grid of work variables that maps
// engine values back onto the week.
type Plan struct {
	Model *solver.Model
	// Families counts constraint rows per family.
	Families map[string]int

	work [][models.DaysPerWeek][models.HoursPerDay]solver.Var
}

// Var returns the work variable of employee e on day d at hour h.
func (p *Plan) Var(e int, d models.Day, h int) solver.Var {
	return p.work[e][d][h]
}

// Decode turns an engine value vector into an assignment matrix.
func (p *Plan) Decode(values []bool) *models.Assignment {
	a := models.NewAssignment(len(p.work))
	for e := range p.work {
		for _, d := range models.Week {
			for h := 0; h < models.HoursPerDay; h++ {
				a.Set(e, d, h, values[p.work[e][d][h]])
			}
		}
	}
	return a
}

// Build creates one boolean per employee, day and hour (7*24*N in total,
// whatever the business hours) and adds the availability, demand,
// shift-length and hour-cap rows plus the objective selected by cfg.
func Build(employees []models.Employee, cfg models.Config) (*Plan, error) {
	if len(employees) == 0 {
		return nil, customerrors.ErrNoEmployees
	}

	unavailable := make([][models.DaysPerWeek]models.HourSet, len(employees))
	preferred := make([][models.DaysPerWeek]models.HourSet, len(employees))
	for i, emp := range employees {
		var err error
		if unavailable[i], preferred[i], err = parser.Expand(emp); err != nil {
			return nil, err
		}
	}

	m := solver.NewModel()
	p := &Plan{
		Model:    m,
		Families: make(map[string]int),
		work:     make([][models.DaysPerWeek][models.HoursPerDay]solver.Var, len(employees)),
	}
	for i, emp := range employees {
		for _, d := range models.Week {
			for h := 0; h < models.HoursPerDay; h++ {
				p.work[i][d][h] = m.NewBoolVar(fmt.Sprintf("work_%s_%s_%02d", emp.Name, d, h))
			}
		}
	}

	p.addAvailability(employees, unavailable)
	p.addDemand(employees, cfg)
	for i, emp := range employees {
		for _, d := range models.Week {
			p.addMinShift(emp.Name, i, d, cfg.MinShiftLength)
			p.addMaxShift(emp.Name, i, d, cfg.MaxShiftLength)
			p.add(familyDailyCap, solver.Constraint{
				Name:  fmt.Sprintf("daily_cap_%s_%s", emp.Name, d),
				Terms: solver.Sum(p.work[i][d][:]...),
				Bound: solver.AtMost,
				RHS:   float64(cfg.DailyMaxHours),
			})
		}
		p.add(familyWeeklyCap, solver.Constraint{
			Name:  fmt.Sprintf("weekly_cap_%s", emp.Name),
			Terms: solver.Sum(p.week(i)...),
			Bound: solver.AtMost,
			RHS:   float64(emp.MaxHours),
		})
	}

	p.setObjective(cfg.Objective, preferred)
	return p, nil
}

func (p *Plan) add(family string, c solver.Constraint) {
	p.Model.Add(c)
	p.Families[family]++
}

func (p *Plan) week(e int) []solver.Var {
	vars := make([]solver.Var, 0, models.DaysPerWeek*models.HoursPerDay)
	for _, d := range models.Week {
		vars = append(vars, p.work[e][d][:]...)
	}
	return vars
}

func (p *Plan) addAvailability(employees []models.Employee, unavailable [][models.DaysPerWeek]models.HourSet) {
	for i, emp := range employees {
		for _, d := range models.Week {
			for _, h := range unavailable[i][d].Hours() {
				p.add(familyAvailability, solver.Constraint{
					Name:  fmt.Sprintf("unavailable_%s_%s_%02d", emp.Name, d, h),
					Terms: solver.Sum(p.work[i][d][h]),
					Bound: solver.Exactly,
					RHS:   0,
				})
			}
		}
	}
}

// addDemand requires enough matching employees for every positive
// requirement. A role nobody holds still gets its row, which makes the
// model infeasible rather than silently dropping the requirement.
func (p *Plan) addDemand(employees []models.Employee, cfg models.Config) {
	for _, slot := range demand.Week(cfg) {
		for _, req := range slot.Requirements {
			if req.Count <= 0 {
				continue
			}
			var vars []solver.Var
			for i, emp := range employees {
				if req.Matches(emp.Role) {
					vars = append(vars, p.work[i][slot.Day][slot.Hour])
				}
			}
			scope := req.Role
			if req.Total {
				scope = "total"
			}
			p.add(familyDemand, solver.Constraint{
				Name:  fmt.Sprintf("demand_%s_%02d_%s", slot.Day, slot.Hour, scope),
				Terms: solver.Sum(vars...),
				Bound: solver.AtLeast,
				RHS:   float64(req.Count),
			})
		}
	}
}

// addMinShift forbids shifts shorter than length unless midnight cuts them.
// A shift starts at h when work[h] - work[h-1] is 1 (work[0] at hour 0); each
// of the following length-1 hours must then be worked:
//
//	work[f] - work[h] + work[h-1] >= 0
func (p *Plan) addMinShift(name string, e int, d models.Day, length int) {
	work := p.work[e][d]
	for h := 0; h < models.HoursPerDay; h++ {
		last := min(h+length, models.HoursPerDay)
		for f := h + 1; f < last; f++ {
			terms := []solver.Term{{Var: work[f], Coef: 1}, {Var: work[h], Coef: -1}}
			if h > 0 {
				terms = append(terms, solver.Term{Var: work[h-1], Coef: 1})
			}
			p.add(familyMinShift, solver.Constraint{
				Name:  fmt.Sprintf("min_shift_%s_%s_%02d_%02d", name, d, h, f),
				Terms: terms,
				Bound: solver.AtLeast,
				RHS:   0,
			})
		}
	}
}

// addMaxShift caps every window of length+1 consecutive hours at length.
func (p *Plan) addMaxShift(name string, e int, d models.Day, length int) {
	window := length + 1
	work := p.work[e][d]
	for h := 0; h+window <= models.HoursPerDay; h++ {
		p.add(familyMaxShift, solver.Constraint{
			Name:  fmt.Sprintf("max_shift_%s_%s_%02d", name, d, h),
			Terms: solver.Sum(work[h : h+window]...),
			Bound: solver.AtMost,
			RHS:   float64(length),
		})
	}
}

func (p *Plan) setObjective(objective models.Objective, preferred [][models.DaysPerWeek]models.HourSet) {
	if objective == models.ObjectivePreference {
		var vars []solver.Var
		for e := range p.work {
			for _, d := range models.Week {
				for _, h := range preferred[e][d].Hours() {
					vars = append(vars, p.work[e][d][h])
				}
			}
		}
		p.Model.SetObjective(solver.Maximize, solver.Sum(vars...))
		return
	}

	var all []solver.Var
	for e := range p.work {
		all = append(all, p.week(e)...)
	}
	p.Model.SetObjective(solver.Minimize, solver.Sum(all...))
}
