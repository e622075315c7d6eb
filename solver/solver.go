// Package solver describes a 0-1 linear model and the narrow contract an
// optimisation engine must satisfy to solve it.
package solver

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Var identifies a boolean decision variable within one Model.
type Var int

// Term is Coef * Var.
type Term struct {
	Var  Var
	Coef float64
}

// Sum returns unit-coefficient terms for vars.
func Sum(vars ...Var) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}
	return terms
}

// Bound is the comparison a constraint row applies against its RHS.
type Bound int

const (
	AtLeast Bound = iota
	AtMost
	Exactly
)

func (b Bound) String() string {
	switch b {
	case AtLeast:
		return ">="
	case AtMost:
		return "<="
	case Exactly:
		return "=="
	default:
		return fmt.Sprintf("Bound(%d)", int(b))
	}
}

// Constraint is a linear row: Σ terms (Bound) RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Bound Bound
	RHS   float64
}

// Holds evaluates the constraint against a full value vector.
func (c Constraint) Holds(values []bool) bool {
	lhs := 0.0
	for _, t := range c.Terms {
		if values[t.Var] {
			lhs += t.Coef
		}
	}
	const eps = 1e-9
	switch c.Bound {
	case AtLeast:
		return lhs >= c.RHS-eps
	case AtMost:
		return lhs <= c.RHS+eps
	default:
		return lhs >= c.RHS-eps && lhs <= c.RHS+eps
	}
}

// Sense is the optimisation direction.
type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Objective is a linear function to optimise.
type Objective struct {
	Sense Sense
	Terms []Term
}

// Value evaluates the objective for a value vector.
func (o Objective) Value(values []bool) float64 {
	v := 0.0
	for _, t := range o.Terms {
		if values[t.Var] {
			v += t.Coef
		}
	}
	return v
}

// Model is a set of boolean variables, linear constraints and one objective.
// A Model is built by a single goroutine and must not be modified once
// handed to an Engine.
type Model struct {
	names       []string
	constraints []Constraint
	objective   Objective
}

func NewModel() *Model {
	return &Model{}
}

// NewBoolVar adds a variable and returns its handle.
func (m *Model) NewBoolVar(name string) Var {
	m.names = append(m.names, name)
	return Var(len(m.names) - 1)
}

func (m *Model) NumVars() int {
	return len(m.names)
}

func (m *Model) VarName(v Var) string {
	return m.names[v]
}

// Add appends a constraint. Repeated variables are merged and zero
// coefficients dropped, since engines reject duplicate row entries.
func (m *Model) Add(c Constraint) {
	c.Terms = compact(c.Terms)
	m.constraints = append(m.constraints, c)
}

// AddAtLeast adds Σ vars >= rhs.
func (m *Model) AddAtLeast(name string, rhs float64, vars ...Var) {
	m.Add(Constraint{Name: name, Terms: Sum(vars...), Bound: AtLeast, RHS: rhs})
}

// AddAtMost adds Σ vars <= rhs.
func (m *Model) AddAtMost(name string, rhs float64, vars ...Var) {
	m.Add(Constraint{Name: name, Terms: Sum(vars...), Bound: AtMost, RHS: rhs})
}

// Fix adds v == value.
func (m *Model) Fix(name string, v Var, value bool) {
	rhs := 0.0
	if value {
		rhs = 1
	}
	m.Add(Constraint{Name: name, Terms: Sum(v), Bound: Exactly, RHS: rhs})
}

func (m *Model) Constraints() []Constraint {
	return m.constraints
}

// SetObjective replaces the objective.
func (m *Model) SetObjective(sense Sense, terms []Term) {
	m.objective = Objective{Sense: sense, Terms: compact(terms)}
}

func (m *Model) Objective() Objective {
	return m.objective
}

// Violated returns the names of constraints the value vector breaks.
func (m *Model) Violated(values []bool) []string {
	if len(values) != len(m.names) {
		return []string{fmt.Sprintf("value vector has %d entries, model has %d variables", len(values), len(m.names))}
	}
	var broken []string
	for _, c := range m.constraints {
		if !c.Holds(values) {
			broken = append(broken, c.Name)
		}
	}
	return broken
}

func compact(terms []Term) []Term {
	if len(terms) < 2 {
		if len(terms) == 1 && terms[0].Coef == 0 {
			return nil
		}
		return terms
	}
	coef := make(map[Var]float64, len(terms))
	for _, t := range terms {
		coef[t.Var] += t.Coef
	}
	out := make([]Term, 0, len(coef))
	for v, c := range coef {
		if c != 0 {
			out = append(out, Term{Var: v, Coef: c})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Var < out[j].Var })
	return out
}

// Status is the terminal state of an engine run.
type Status int

const (
	// Optimal means the engine proved the returned values optimal.
	Optimal Status = iota
	// Feasible means the values satisfy every constraint but optimality
	// was not proved within the budget.
	Feasible
	// Infeasible means the engine proved no assignment exists.
	Infeasible
	// TimedOut means the budget ran out before any feasible assignment
	// was found.
	TimedOut
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	case TimedOut:
		return "timed_out"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result is what an Engine returns. Values is indexed by Var and only set
// when Solved reports true.
type Result struct {
	Status    Status
	Values    []bool
	Objective float64
}

// Solved reports whether the result carries an assignment.
func (r Result) Solved() bool {
	return r.Status == Optimal || r.Status == Feasible
}

// Engine solves a model within a wall-clock budget. A zero budget means no
// limit. Implementations return an error only for failures that are neither
// infeasibility nor an exhausted budget.
type Engine interface {
	Solve(ctx context.Context, m *Model, budget time.Duration) (Result, error)
}
