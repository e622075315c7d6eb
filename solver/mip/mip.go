// Package mip solves solver models as 0-1 mixed integer programs with GLPK.
package mip

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/lukpank/go-glpk/glpk"
	"go.uber.org/zap"

	customerrors "shift-scheduler/errors"
	"shift-scheduler/metrics"
	"shift-scheduler/solver"
)

// Engine implements solver.Engine on top of GLPK's branch-and-cut.
// Every Solve builds its own GLPK problem, so one Engine may serve
// concurrent solves.
//
// The binding has no time limit, so a run that outlives its budget is
// abandoned rather than stopped: it keeps its locked OS thread and a CPU
// busy until GLPK returns, and its result is discarded.
type Engine struct {
	logger *zap.Logger
}

// New returns a GLPK engine. A nil logger disables logging.
func New(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

type outcome struct {
	result solver.Result
	err    error
}

// Solve runs GLPK on m. When the budget elapses before GLPK returns, Solve
// reports solver.TimedOut; the abandoned GLPK run finishes in the background
// and releases its problem.
func (e *Engine) Solve(ctx context.Context, m *solver.Model, budget time.Duration) (solver.Result, error) {
	if budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, budget)
		defer cancel()
	}

	e.logger.Debug("glpk solve started",
		zap.Int("variables", m.NumVars()),
		zap.Int("constraints", len(m.Constraints())),
		zap.Duration("budget", budget),
	)

	start := time.Now()
	done := make(chan outcome, 1)
	go func() {
		// GLPK keeps its environment in thread-local storage.
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		res, err := run(m)
		done <- outcome{result: res, err: err}
	}()

	select {
	case o := <-done:
		metrics.EngineDurationSeconds.Observe(time.Since(start).Seconds())
		e.logger.Debug("glpk solve finished",
			zap.Stringer("status", o.result.Status),
			zap.Float64("objective", o.result.Objective),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(o.err),
		)
		return o.result, o.err
	case <-ctx.Done():
		metrics.EngineDurationSeconds.Observe(time.Since(start).Seconds())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			e.logger.Warn("glpk solve exceeded its budget", zap.Duration("budget", budget))
			return solver.Result{Status: solver.TimedOut}, nil
		}
		return solver.Result{}, ctx.Err()
	}
}

func run(m *solver.Model) (solver.Result, error) {
	lp := glpk.New()
	defer lp.Delete()
	lp.SetProbName("shift-schedule")

	obj := m.Objective()
	if obj.Sense == solver.Maximize {
		lp.SetObjDir(glpk.ObjDir(glpk.MAX))
	} else {
		lp.SetObjDir(glpk.ObjDir(glpk.MIN))
	}

	// GLPK columns and rows are 1-based.
	numCols := m.NumVars()
	if numCols > 0 {
		lp.AddCols(numCols)
	}
	for j := 1; j <= numCols; j++ {
		lp.SetColName(j, m.VarName(solver.Var(j-1)))
		lp.SetColKind(j, glpk.VarType(glpk.BV))
	}
	for _, t := range obj.Terms {
		lp.SetObjCoef(int(t.Var)+1, t.Coef)
	}

	rows := m.Constraints()
	if len(rows) > 0 {
		lp.AddRows(len(rows))
	}
	for i, c := range rows {
		row := i + 1
		lp.SetRowName(row, c.Name)
		switch c.Bound {
		case solver.AtLeast:
			lp.SetRowBnds(row, glpk.BndsType(glpk.LO), c.RHS, 0)
		case solver.AtMost:
			lp.SetRowBnds(row, glpk.BndsType(glpk.UP), 0, c.RHS)
		default:
			lp.SetRowBnds(row, glpk.BndsType(glpk.FX), c.RHS, c.RHS)
		}
		if len(c.Terms) == 0 {
			continue
		}
		// ind[0] and val[0] are ignored by GLPK.
		ind := make([]int32, len(c.Terms)+1)
		val := make([]float64, len(c.Terms)+1)
		for k, t := range c.Terms {
			ind[k+1] = int32(t.Var) + 1
			val[k+1] = t.Coef
		}
		lp.SetMatRow(row, ind, val)
	}

	iocp := glpk.NewIocp()
	iocp.SetPresolve(true)
	iocp.SetMsgLev(glpk.MsgLev(glpk.MSG_ERR))

	if err := lp.Intopt(iocp); err != nil {
		switch {
		case errors.Is(err, glpk.ENOPFS):
			return solver.Result{Status: solver.Infeasible}, nil
		case errors.Is(err, glpk.ETMLIM):
			// fall through to the MIP status: an incumbent may exist
		default:
			return solver.Result{}, fmt.Errorf("%w: glpk intopt: %v", customerrors.ErrEngine, err)
		}
	}

	var status solver.Status
	switch lp.MipStatus() {
	case glpk.OPT:
		status = solver.Optimal
	case glpk.FEAS:
		status = solver.Feasible
	case glpk.NOFEAS:
		return solver.Result{Status: solver.Infeasible}, nil
	default:
		return solver.Result{Status: solver.TimedOut}, nil
	}

	values := make([]bool, numCols)
	for j := 1; j <= numCols; j++ {
		values[j-1] = lp.MipColVal(j) > 0.5
	}
	return solver.Result{Status: status, Values: values, Objective: lp.MipObjVal()}, nil
}
