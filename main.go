package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	customerrors "shift-scheduler/errors"
	"shift-scheduler/formatter"
	"shift-scheduler/loader"
	"shift-scheduler/metrics"
	"shift-scheduler/models"
	"shift-scheduler/scheduler"
	"shift-scheduler/solver/mip"
)

// Exit codes.
const (
	exitError      = 1
	exitInfeasible = 2
)

func main() {
	// Define flags
	employeesPath := flag.String("employees", "", "Employee document or directory of employee documents (required)")
	configPath := flag.String("config", "", "Configuration document, JSON or YAML (required)")
	format := flag.String("format", "json", "Output format: json|text|csv")
	output := flag.String("output", "", "Write the result document to this file instead of stdout")
	objective := flag.String("objective", "", "Override the configured objective: cost|preference")
	timeLimit := flag.Duration("time-limit", 0, "Override the configured solver time budget (e.g. 30s)")
	metricsAddr := flag.String("metrics-addr", "", "Address to expose Prometheus metrics (e.g., :9090)")
	pushGateway := flag.String("push-url", "", "Pushgateway URL to push metrics to (e.g., http://localhost:9091)")
	wait := flag.Bool("wait", false, "Keep process running after completion to allow for metric scraping")
	debug := flag.Bool("debug", false, "Human readable debug logging")

	// Parse command-line flags
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(exitError)
	}
	defer logger.Sync()

	// Start metrics server if address provided
	if *metricsAddr != "" {
		go func() {
			http.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
			logger.Info("metrics server listening", zap.String("addr", *metricsAddr))
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	// Validate required flags
	if *employeesPath == "" || *configPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -employees and -config flags are required")
		fmt.Fprintln(os.Stderr, "\nUsage:")
		flag.PrintDefaults()
		os.Exit(exitError)
	}

	// Validate format enum
	validFormats := map[string]bool{"text": true, "json": true, "csv": true}
	if !validFormats[*format] {
		fmt.Fprintf(os.Stderr, "Error: format must be one of: text, json, csv (got: %s)\n", *format)
		os.Exit(exitError)
	}

	switch models.Objective(*objective) {
	case "", models.ObjectiveCost, models.ObjectivePreference:
	default:
		fmt.Fprintf(os.Stderr, "Error: objective must be one of: cost, preference (got: %s)\n", *objective)
		os.Exit(exitError)
	}

	if *timeLimit < 0 {
		fmt.Fprintln(os.Stderr, "Error: time-limit must not be negative")
		os.Exit(exitError)
	}

	load := loader.New(logger)
	employees, err := load.Employees(*employeesPath)
	if err != nil {
		logger.Error("loading employees failed", zap.Error(err))
		os.Exit(exitError)
	}
	cfg, err := load.Config(*configPath)
	if err != nil {
		logger.Error("loading config failed", zap.Error(err))
		os.Exit(exitError)
	}
	if *objective != "" {
		cfg.Objective = models.Objective(*objective)
	}
	if *timeLimit > 0 {
		cfg.TimeLimit = *timeLimit
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	sched := scheduler.New(mip.New(logger), logger)
	solution, err := sched.Solve(ctx, employees, cfg)

	var diag *customerrors.DiagnosticError
	switch {
	case errors.As(err, &diag):
		code = exitInfeasible
		if werr := writeOutput(*output, formatter.FormatError(diag)); werr != nil {
			logger.Error("writing result failed", zap.Error(werr))
			code = exitError
		}
	case err != nil:
		logger.Error("scheduling failed", zap.Error(err))
		code = exitError
	default:
		scheduler.Publish(solution)

		// Output based on format
		var doc string
		switch *format {
		case "text":
			doc = formatter.FormatText(solution.Schedule)
			fmt.Fprint(os.Stderr, formatter.FormatSummary(solution.Summary))
		case "csv":
			doc = formatter.FormatCSV(solution.Schedule)
		default: // "json"
			doc = formatter.FormatJSON(solution.Schedule)
		}
		if err := writeOutput(*output, doc); err != nil {
			logger.Error("writing result failed", zap.Error(err))
			code = exitError
		}
	}

	// Handle metrics pushing or waiting
	if *pushGateway != "" {
		jobName := "shift_scheduler"
		if err := push.New(*pushGateway, jobName).Gatherer(metrics.Registry).Push(); err != nil {
			logger.Error("pushing to Pushgateway failed", zap.Error(err))
		} else {
			logger.Info("metrics pushed to Pushgateway", zap.String("url", *pushGateway))
		}
	}

	if *wait && *metricsAddr != "" {
		logger.Info("process kept alive for metric scraping, press Ctrl+C to exit")
		<-ctx.Done()
	} else if *metricsAddr != "" && *pushGateway == "" {
		// Small delay to allow final scrape if not waiting explicitly
		time.Sleep(100 * time.Millisecond)
	}

	if code != 0 {
		logger.Sync()
		os.Exit(code)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// writeOutput writes doc to path, or to stdout when path is empty.
func writeOutput(path, doc string) error {
	if path == "" {
		_, err := fmt.Fprint(os.Stdout, doc)
		return err
	}
	return os.WriteFile(path, []byte(doc), 0o644)
}
