package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shift-scheduler/diagnostics"
	customerrors "shift-scheduler/errors"
	"shift-scheduler/formatter"
	"shift-scheduler/metrics"
	"shift-scheduler/models"
	"shift-scheduler/solver"
)

// Scheduler builds a model per request and hands it to an engine. It holds
// no per-solve state, so concurrent Solve calls are independent. Solve only
// touches counters and histograms; the last-solve gauges are set by Publish.
type Scheduler struct {
	engine solver.Engine
	logger *zap.Logger
}

// New wires a scheduler to a solving engine. A nil logger disables logging.
func New(engine solver.Engine, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{engine: engine, logger: logger}
}

// Solution is a successful solve.
type Solution struct {
	ID         string
	Status     solver.Status
	Objective  float64
	Assignment *models.Assignment
	Schedule   models.ScheduleResult
	Summary    formatter.Summary
	// Variables and Constraints describe the model that was solved.
	Variables   int
	Constraints map[string]int
}

// Publish sets the last-solve gauges from sol. The gauges are shared by the
// whole process, so callers running several solves at once see whichever
// solution was published last.
func Publish(sol *Solution) {
	metrics.ResetSchedulerGauges()
	metrics.ModelVariables.Set(float64(sol.Variables))
	for family, n := range sol.Constraints {
		metrics.ModelConstraints.WithLabelValues(family).Set(float64(n))
	}
	metrics.ScheduledHours.Set(float64(sol.Summary.TotalHours))
	metrics.LaborCost.Set(sol.Summary.TotalCost.InexactFloat64())
	for role, hours := range sol.Summary.HoursByRole {
		metrics.ScheduledHoursByRole.WithLabelValues(role).Set(float64(hours))
	}
}

// Solve schedules the week. When the engine proves infeasibility or runs out
// of time without an assignment, Solve returns a *errors.DiagnosticError
// naming the first uncoverable requirement; both outcomes take that path.
// Other failures are returned wrapped.
func (s *Scheduler) Solve(ctx context.Context, employees []models.Employee, cfg models.Config) (*Solution, error) {
	id := uuid.NewString()
	logger := s.logger.With(zap.String("solve_id", id))
	start := time.Now()
	defer func() {
		metrics.SchedulerDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	metrics.SchedulerEmployeesProcessed.Observe(float64(len(employees)))

	plan, err := Build(employees, cfg)
	if err != nil {
		metrics.SolvesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("build model: %w", err)
	}
	logger.Info("model built",
		zap.Int("employees", len(employees)),
		zap.Int("variables", plan.Model.NumVars()),
		zap.Int("constraints", len(plan.Model.Constraints())),
		zap.String("objective", string(cfg.Objective)),
		zap.Duration("time_limit", cfg.TimeLimit),
	)

	res, err := s.engine.Solve(ctx, plan.Model, cfg.TimeLimit)
	if err != nil {
		metrics.SolvesTotal.WithLabelValues("error").Inc()
		logger.Error("engine failed", zap.Error(err))
		return nil, fmt.Errorf("solve %s: %w", id, err)
	}
	metrics.SolvesTotal.WithLabelValues(res.Status.String()).Inc()

	if !res.Solved() {
		return nil, s.diagnose(logger, employees, cfg, res.Status)
	}

	if len(res.Values) != plan.Model.NumVars() {
		return nil, fmt.Errorf("solve %s: %w: engine returned %d values for %d variables",
			id, customerrors.ErrEngine, len(res.Values), plan.Model.NumVars())
	}
	assignment := plan.Decode(res.Values)
	if err := Verify(employees, cfg, assignment); err != nil {
		logger.Error("engine returned an invalid assignment", zap.Error(err))
		return nil, fmt.Errorf("solve %s: %w", id, err)
	}

	schedule := formatter.Format(employees, assignment)
	summary := formatter.Summarize(employees, schedule)
	logger.Info("schedule found",
		zap.Stringer("status", res.Status),
		zap.Float64("objective", res.Objective),
		zap.Int("scheduled_hours", summary.TotalHours),
		zap.String("labor_cost", summary.TotalCost.StringFixed(2)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Solution{
		ID:         id,
		Status:     res.Status,
		Objective:  res.Objective,
		Assignment: assignment,
		Schedule:   schedule,
		Summary:    summary,

		Variables:   plan.Model.NumVars(),
		Constraints: plan.Families,
	}, nil
}

func (s *Scheduler) diagnose(logger *zap.Logger, employees []models.Employee, cfg models.Config, status solver.Status) error {
	diag := diagnostics.Diagnose(employees, cfg)
	diag.Status = customerrors.StatusInfeasible
	if status == solver.TimedOut {
		diag.Status = customerrors.StatusTimedOut
	}

	violations := diagnostics.All(employees, cfg)
	for _, v := range violations {
		role := v.Role
		if v.Total {
			role = "total"
		}
		metrics.UnmetRequirementsTotal.WithLabelValues(role).Inc()
	}

	logger.Warn("no feasible schedule",
		zap.Stringer("status", status),
		zap.Int("capacity_shortfalls", len(violations)),
		zap.String("diagnosis", diag.Message),
	)
	return diag
}
