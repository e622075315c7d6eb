// Package metrics provides Prometheus observability metrics for the shift scheduler.
// It includes Critical and Important metrics for business and operational visibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Business Impact Visibility
// =============================================================================

// SolvesTotal counts solve outcomes by terminal status
// (optimal, feasible, infeasible, timed_out, error).
var SolvesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "solves_total",
	Help:      "Total scheduling runs by outcome",
}, []string{"status"})

// UnmetRequirementsTotal counts staffing requirements that availability alone
// cannot cover, by role ("total" for head-count requirements).
var UnmetRequirementsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "unmet_requirements_total",
	Help:      "Staffing requirements found uncoverable by diagnostics, by role",
}, []string{"role"})

// ScheduledHours tracks total employee-hours in the last produced schedule.
var ScheduledHours = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "scheduled_hours",
	Help:      "Employee-hours scheduled in the last successful run",
})

// LaborCost tracks the labour cost of the last produced schedule.
var LaborCost = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "labor_cost",
	Help:      "Labour cost of the last successful run, for employees with an hourly rate",
})

// ScheduledHoursByRole tracks employee-hours per role in the last schedule.
var ScheduledHoursByRole = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "scheduled_hours_by_role",
	Help:      "Employee-hours scheduled in the last successful run, by role",
}, []string{"role"})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// LoaderErrorsTotal tracks document errors by error type.
var LoaderErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "loader",
	Name:      "errors_total",
	Help:      "Total document errors by error type",
}, []string{"error_type"})

// LoaderEmployeesTotal tracks employee records successfully loaded.
var LoaderEmployeesTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "loader",
	Name:      "employees_total",
	Help:      "Total employee records successfully loaded",
})

// LoaderSkippedFilesTotal tracks employee files skipped in directory mode.
var LoaderSkippedFilesTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "loader",
	Name:      "skipped_files_total",
	Help:      "Employee files skipped because they were unreadable or not employee records",
})

// SchedulerDurationSeconds tracks time to produce a schedule or a diagnosis.
var SchedulerDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "scheduler",
	Name:      "duration_seconds",
	Help:      "Time taken to build, solve and format a schedule",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
})

// EngineDurationSeconds tracks time spent inside the solving engine.
var EngineDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "engine",
	Name:      "duration_seconds",
	Help:      "Time the solving engine spent on a model",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
})

// ModelVariables tracks decision variables in the last built model.
var ModelVariables = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "model_variables",
	Help:      "Decision variables in the last built model",
})

// ModelConstraints tracks constraint rows in the last built model by family.
var ModelConstraints = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "model_constraints",
	Help:      "Constraint rows in the last built model, by constraint family",
}, []string{"family"})

// SchedulerEmployeesProcessed tracks number of employees per scheduling run.
var SchedulerEmployeesProcessed = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "scheduler",
	Name:      "employees_processed",
	Help:      "Number of employees processed per scheduling run",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetSchedulerGauges clears the last-solve gauges. The gauges are process
// wide: with overlapping solves the last one to publish wins.
func ResetSchedulerGauges() {
	ScheduledHours.Set(0)
	LaborCost.Set(0)
	ModelVariables.Set(0)
	ScheduledHoursByRole.Reset()
	ModelConstraints.Reset()
}
