// Package loader reads employee and configuration documents and normalises
// them into the fully populated values the scheduler consumes.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	customerrors "shift-scheduler/errors"
	"shift-scheduler/metrics"
	"shift-scheduler/models"
	"shift-scheduler/parser"
)

// Format is the encoding of a configuration document.
type Format int

const (
	JSON Format = iota
	YAML
)

// FormatOf picks the document format from a file extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

type employeeDocument struct {
	EmployeeData []employeeRecord `json:"employee_data" validate:"required,dive"`
}

type employeeRecord struct {
	Name         string               `json:"name"`
	Role         string               `json:"role"`
	MaxHours     *int                 `json:"max_hours" validate:"omitempty,gte=0,lte=168"`
	HourlyRate   *decimal.Decimal     `json:"hourly_rate"`
	Availability map[string]dayRecord `json:"availability"`
}

type dayRecord struct {
	Unavailable []string `json:"unavailable"`
	Preferred   []string `json:"preferred"`
}

type configDocument struct {
	Constraints      *constraintsDocument                     `json:"constraints" yaml:"constraints" validate:"required"`
	Demand           map[string]map[string]*models.StaffLevel `json:"demand" yaml:"demand"`
	Objective        string                                   `json:"objective" yaml:"objective" validate:"omitempty,oneof=cost preference"`
	TimeLimitSeconds *float64                                 `json:"time_limit_seconds" yaml:"time_limit_seconds" validate:"omitempty,gt=0"`
}

type constraintsDocument struct {
	BusinessHours    *businessHours     `json:"business_hours" yaml:"business_hours" validate:"required"`
	MinShiftLength   *int               `json:"min_shift_length" yaml:"min_shift_length" validate:"required,gte=1,lte=24"`
	MaxShiftLength   *int               `json:"max_shift_length" yaml:"max_shift_length" validate:"required,gte=1,lte=24"`
	DailyMaxHours    *int               `json:"daily_max_hours" yaml:"daily_max_hours" validate:"required,gte=1,lte=24"`
	GlobalStaffFloor *models.StaffLevel `json:"global_staff_floor" yaml:"global_staff_floor" validate:"required"`
}

type businessHours struct {
	Start *int `json:"start" yaml:"start" validate:"required,gte=0,lte=23"`
	End   *int `json:"end" yaml:"end" validate:"required,gte=1,lte=24"`
}

// Loader decodes and validates documents. It is safe for concurrent use.
type Loader struct {
	validate *validator.Validate
	logger   *zap.Logger
}

// New returns a loader. A nil logger disables logging.
func New(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := validator.New()
	// Report document keys rather than Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &Loader{validate: validate, logger: logger}
}

// Employees loads employees from an aggregate document or, when path is a
// directory, from one document per employee.
func (l *Loader) Employees(path string) ([]models.Employee, error) {
	info, err := os.Stat(path)
	if err != nil {
		metrics.LoaderErrorsTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("employees: %w", err)
	}
	if info.IsDir() {
		return l.employeeDir(path)
	}

	f, err := os.Open(path)
	if err != nil {
		metrics.LoaderErrorsTotal.WithLabelValues("read").Inc()
		return nil, fmt.Errorf("employees: %w", err)
	}
	defer f.Close()
	return l.DecodeEmployees(f)
}

// DecodeEmployees reads an aggregate {"employee_data": [...]} document.
func (l *Loader) DecodeEmployees(r io.Reader) ([]models.Employee, error) {
	var doc employeeDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		metrics.LoaderErrorsTotal.WithLabelValues("decode").Inc()
		return nil, fmt.Errorf("%w: employee document: %v", customerrors.ErrMalformedDocument, err)
	}
	if err := l.check(&doc); err != nil {
		return nil, err
	}

	employees := make([]models.Employee, 0, len(doc.EmployeeData))
	for i, rec := range doc.EmployeeData {
		field := fmt.Sprintf("employee_data[%d]", i)
		if strings.TrimSpace(rec.Name) == "" {
			metrics.LoaderErrorsTotal.WithLabelValues("validation").Inc()
			return nil, &customerrors.ConfigError{Field: field + ".name", Err: customerrors.ErrMissingField}
		}
		emp, err := normalizeEmployee(field, rec)
		if err != nil {
			metrics.LoaderErrorsTotal.WithLabelValues("validation").Inc()
			return nil, err
		}
		employees = append(employees, emp)
	}
	return l.finish(employees)
}

func (l *Loader) employeeDir(dir string) ([]models.Employee, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("employees: %w", err)
	}
	sort.Strings(paths)

	var employees []models.Employee
	for _, path := range paths {
		rec, ok := l.employeeFile(path)
		if !ok {
			metrics.LoaderSkippedFilesTotal.Inc()
			continue
		}
		if strings.TrimSpace(rec.Name) == "" {
			rec.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		emp, err := normalizeEmployee(filepath.Base(path), rec)
		if err != nil {
			l.logger.Debug("skipping invalid employee file", zap.String("path", path), zap.Error(err))
			metrics.LoaderErrorsTotal.WithLabelValues("validation").Inc()
			metrics.LoaderSkippedFilesTotal.Inc()
			continue
		}
		employees = append(employees, emp)
	}
	return l.finish(employees)
}

// employeeFile decodes one employee document. Unreadable files, malformed
// JSON and documents that are not employee records are skipped.
func (l *Loader) employeeFile(path string) (employeeRecord, bool) {
	var rec employeeRecord
	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.Debug("skipping unreadable employee file", zap.String("path", path), zap.Error(err))
		metrics.LoaderErrorsTotal.WithLabelValues("read").Inc()
		return rec, false
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		l.logger.Debug("skipping malformed employee file", zap.String("path", path), zap.Error(err))
		metrics.LoaderErrorsTotal.WithLabelValues("decode").Inc()
		return rec, false
	}
	_, hasRole := keys["role"]
	_, hasAvailability := keys["availability"]
	if !hasRole && !hasAvailability {
		l.logger.Debug("skipping non-employee file", zap.String("path", path))
		return rec, false
	}

	if err := json.Unmarshal(data, &rec); err != nil {
		l.logger.Debug("skipping malformed employee file", zap.String("path", path), zap.Error(err))
		metrics.LoaderErrorsTotal.WithLabelValues("decode").Inc()
		return rec, false
	}
	if err := l.validate.Struct(rec); err != nil {
		l.logger.Debug("skipping invalid employee file", zap.String("path", path), zap.Error(err))
		metrics.LoaderErrorsTotal.WithLabelValues("validation").Inc()
		return rec, false
	}
	return rec, true
}

// finish rejects duplicate names and empty rosters.
func (l *Loader) finish(employees []models.Employee) ([]models.Employee, error) {
	if len(employees) == 0 {
		return nil, customerrors.ErrNoEmployees
	}
	seen := make(map[string]bool, len(employees))
	for _, emp := range employees {
		if seen[emp.Name] {
			metrics.LoaderErrorsTotal.WithLabelValues("duplicate").Inc()
			return nil, fmt.Errorf("%w: %q", customerrors.ErrDuplicateEmployee, emp.Name)
		}
		seen[emp.Name] = true
	}
	metrics.LoaderEmployeesTotal.Add(float64(len(employees)))
	l.logger.Info("employees loaded", zap.Int("count", len(employees)))
	return employees, nil
}

func normalizeEmployee(field string, rec employeeRecord) (models.Employee, error) {
	emp := models.Employee{
		Name:         strings.TrimSpace(rec.Name),
		Role:         rec.Role,
		MaxHours:     models.DefaultMaxHours,
		Availability: make(map[models.Day]models.DayAvailability, len(rec.Availability)),
	}
	if rec.MaxHours != nil {
		emp.MaxHours = *rec.MaxHours
	}
	if rec.HourlyRate != nil {
		if rec.HourlyRate.IsNegative() {
			return emp, &customerrors.ConfigError{
				Field: field + ".hourly_rate",
				Err:   fmt.Errorf("%w: rate %s is negative", customerrors.ErrInvalidConfig, rec.HourlyRate),
			}
		}
		emp.HourlyRate = *rec.HourlyRate
	}
	names := make([]string, 0, len(rec.Availability))
	for name := range rec.Availability {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		d, ok := models.ParseDay(name)
		if !ok {
			return emp, &customerrors.ConfigError{
				Field: fmt.Sprintf("%s.availability.%s", field, name),
				Err:   customerrors.ErrUnknownDay,
			}
		}
		// Day names ignore case, so "Monday" and "monday" collide.
		if _, seen := emp.Availability[d]; seen {
			return emp, &customerrors.ConfigError{
				Field: fmt.Sprintf("%s.availability.%s", field, name),
				Err:   fmt.Errorf("%w: %s", customerrors.ErrDuplicateDay, d),
			}
		}
		day := rec.Availability[name]
		emp.Availability[d] = models.DayAvailability{Unavailable: day.Unavailable, Preferred: day.Preferred}
	}
	if _, _, err := parser.Expand(emp); err != nil {
		return emp, err
	}
	return emp, nil
}

// Config loads a configuration document, choosing JSON or YAML by extension.
func (l *Loader) Config(path string) (models.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		metrics.LoaderErrorsTotal.WithLabelValues("read").Inc()
		return models.Config{}, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return l.DecodeConfig(f, FormatOf(path))
}

// DecodeConfig reads a configuration document and returns the normalised
// configuration with every default filled in.
func (l *Loader) DecodeConfig(r io.Reader, format Format) (models.Config, error) {
	var doc configDocument
	var err error
	if format == YAML {
		err = yaml.NewDecoder(r).Decode(&doc)
	} else {
		err = json.NewDecoder(r).Decode(&doc)
	}
	if err != nil {
		metrics.LoaderErrorsTotal.WithLabelValues("decode").Inc()
		return models.Config{}, fmt.Errorf("%w: config document: %v", customerrors.ErrMalformedDocument, err)
	}
	if err := l.check(&doc); err != nil {
		return models.Config{}, err
	}

	cfg, err := normalizeConfig(doc)
	if err != nil {
		metrics.LoaderErrorsTotal.WithLabelValues("validation").Inc()
		return models.Config{}, err
	}
	l.logger.Info("config loaded",
		zap.Int("open", cfg.BusinessHours.Start),
		zap.Int("close", cfg.BusinessHours.End),
		zap.String("objective", string(cfg.Objective)),
		zap.Duration("time_limit", cfg.TimeLimit),
	)
	return cfg, nil
}

func normalizeConfig(doc configDocument) (models.Config, error) {
	c := doc.Constraints
	cfg := models.Config{
		BusinessHours:  models.HourWindow{Start: *c.BusinessHours.Start, End: *c.BusinessHours.End},
		MinShiftLength: *c.MinShiftLength,
		MaxShiftLength: *c.MaxShiftLength,
		DailyMaxHours:  *c.DailyMaxHours,
		GlobalFloor:    *c.GlobalStaffFloor,
		Objective:      models.ObjectiveCost,
		TimeLimit:      models.DefaultTimeLimit,
	}
	if cfg.BusinessHours.End <= cfg.BusinessHours.Start {
		return cfg, &customerrors.ConfigError{
			Field: "constraints.business_hours",
			Err: fmt.Errorf("%w: end %d must be after start %d",
				customerrors.ErrInvalidConfig, cfg.BusinessHours.End, cfg.BusinessHours.Start),
		}
	}
	if cfg.MaxShiftLength < cfg.MinShiftLength {
		return cfg, &customerrors.ConfigError{
			Field: "constraints.max_shift_length",
			Err: fmt.Errorf("%w: %d is below min_shift_length %d",
				customerrors.ErrInvalidConfig, cfg.MaxShiftLength, cfg.MinShiftLength),
		}
	}
	if err := cfg.GlobalFloor.Validate(); err != nil {
		return cfg, &customerrors.ConfigError{
			Field: "constraints.global_staff_floor",
			Err:   fmt.Errorf("%w: %v", customerrors.ErrInvalidConfig, err),
		}
	}
	if doc.Objective != "" {
		cfg.Objective = models.Objective(doc.Objective)
	}
	if doc.TimeLimitSeconds != nil && *doc.TimeLimitSeconds > 0 {
		cfg.TimeLimit = time.Duration(*doc.TimeLimitSeconds * float64(time.Second))
	}

	for dayName, hours := range doc.Demand {
		d, ok := models.ParseDay(dayName)
		if !ok {
			return cfg, &customerrors.ConfigError{Field: "demand." + dayName, Err: customerrors.ErrUnknownDay}
		}
		if cfg.Demand[d] == nil {
			cfg.Demand[d] = make(map[int]models.StaffLevel, len(hours))
		}
		for hourKey, level := range hours {
			field := fmt.Sprintf("demand.%s.%s", dayName, hourKey)
			h, err := strconv.Atoi(strings.TrimSpace(hourKey))
			if err != nil || h < 0 || h >= models.HoursPerDay {
				return cfg, &customerrors.ConfigError{Field: field, Err: customerrors.ErrInvalidHour}
			}
			if level == nil {
				return cfg, &customerrors.ConfigError{Field: field, Err: customerrors.ErrMissingField}
			}
			if err := level.Validate(); err != nil {
				return cfg, &customerrors.ConfigError{
					Field: field,
					Err:   fmt.Errorf("%w: %v", customerrors.ErrInvalidConfig, err),
				}
			}
			cfg.Demand[d][h] = *level
		}
	}
	return cfg, nil
}

// check runs struct validation and reports the first failure as a
// ConfigError carrying the document path of the offending key.
func (l *Loader) check(doc any) error {
	err := l.validate.Struct(doc)
	if err == nil {
		return nil
	}
	metrics.LoaderErrorsTotal.WithLabelValues("validation").Inc()

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", customerrors.ErrInvalidConfig, err)
	}
	fe := verrs[0]
	field := fe.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	if fe.Tag() == "required" {
		return &customerrors.ConfigError{Field: field, Err: customerrors.ErrMissingField}
	}
	detail := fe.Tag()
	if fe.Param() != "" {
		detail += "=" + fe.Param()
	}
	return &customerrors.ConfigError{
		Field: field,
		Err:   fmt.Errorf("%w: value %v fails %s", customerrors.ErrInvalidConfig, fe.Value(), detail),
	}
}
