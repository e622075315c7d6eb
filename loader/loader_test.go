package loader_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	customerrors "shift-scheduler/errors"
	"shift-scheduler/loader"
	"shift-scheduler/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roster = `{
  "employee_data": [
    {
      "name": "Sam",
      "role": "Server",
      "max_hours": 30,
      "hourly_rate": "15.50",
      "availability": {
        "Monday": {"unavailable": ["00:00-10:00"], "preferred": ["18:00-22:00"]},
        "sunday": {"unavailable": ["00:00-00:00"]}
      }
    },
    {"name": "Carla", "role": "Cook"}
  ]
}`

func TestDecodeEmployees(t *testing.T) {
	employees, err := loader.New(nil).DecodeEmployees(strings.NewReader(roster))
	require.NoError(t, err)
	require.Len(t, employees, 2)

	sam := employees[0]
	assert.Equal(t, "Sam", sam.Name)
	assert.Equal(t, "Server", sam.Role)
	assert.Equal(t, 30, sam.MaxHours)
	assert.True(t, decimal.RequireFromString("15.5").Equal(sam.HourlyRate))
	assert.Equal(t, models.DayAvailability{
		Unavailable: []string{"00:00-10:00"},
		Preferred:   []string{"18:00-22:00"},
	}, sam.Availability[models.Monday])
	assert.Equal(t, []string{"00:00-00:00"}, sam.Availability[models.Sunday].Unavailable)

	carla := employees[1]
	assert.Equal(t, models.DefaultMaxHours, carla.MaxHours)
	assert.True(t, carla.HourlyRate.IsZero())
	assert.Empty(t, carla.Availability)
}

func TestDecodeEmployees_Errors(t *testing.T) {
	tests := map[string]struct {
		doc   string
		err   error
		field string
	}{
		"Malformed": {
			doc: `{"employee_data": [`,
			err: customerrors.ErrMalformedDocument,
		},
		"MissingList": {
			doc:   `{"employees": []}`,
			err:   customerrors.ErrMissingField,
			field: "employee_data",
		},
		"EmptyList": {
			doc: `{"employee_data": []}`,
			err: customerrors.ErrNoEmployees,
		},
		"MissingName": {
			doc:   `{"employee_data": [{"name": "Sam", "role": "Server"}, {"role": "Cook"}]}`,
			err:   customerrors.ErrMissingField,
			field: "employee_data[1].name",
		},
		"NegativeCap": {
			doc:   `{"employee_data": [{"name": "Sam", "max_hours": -1}]}`,
			err:   customerrors.ErrInvalidConfig,
			field: "employee_data[0].max_hours",
		},
		"NegativeRate": {
			doc:   `{"employee_data": [{"name": "Sam", "hourly_rate": -3}]}`,
			err:   customerrors.ErrInvalidConfig,
			field: "employee_data[0].hourly_rate",
		},
		"UnknownDay": {
			doc:   `{"employee_data": [{"name": "Sam", "availability": {"Funday": {}}}]}`,
			err:   customerrors.ErrUnknownDay,
			field: "employee_data[0].availability.Funday",
		},
		"RepeatedDay": {
			doc:   `{"employee_data": [{"name": "Sam", "availability": {"Monday": {}, "monday": {"unavailable": ["09:00-12:00"]}}}]}`,
			err:   customerrors.ErrDuplicateDay,
			field: "employee_data[0].availability.monday",
		},
		"BadRange": {
			doc: `{"employee_data": [{"name": "Sam", "availability": {"Monday": {"preferred": ["noon-ish"]}}}]}`,
			err: customerrors.ErrInvalidRange,
		},
		"InvertedRange": {
			doc: `{"employee_data": [{"name": "Sam", "availability": {"Monday": {"unavailable": ["22:00-02:00"]}}}]}`,
			err: customerrors.ErrInvertedRange,
		},
		"Duplicate": {
			doc: `{"employee_data": [{"name": "Sam"}, {"name": "Sam"}]}`,
			err: customerrors.ErrDuplicateEmployee,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loader.New(nil).DecodeEmployees(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, tt.err)
			if tt.field != "" {
				var cfgErr *customerrors.ConfigError
				require.True(t, errors.As(err, &cfgErr), "got %v", err)
				assert.Equal(t, tt.field, cfgErr.Field)
			}
		})
	}

	t.Run("RangeErrorNamesEmployee", func(t *testing.T) {
		_, err := loader.New(nil).DecodeEmployees(strings.NewReader(tests["BadRange"].doc))
		var rangeErr *customerrors.RangeError
		require.True(t, errors.As(err, &rangeErr))
		assert.Equal(t, "Sam", rangeErr.Employee)
		assert.Equal(t, models.Monday, rangeErr.Day)
		assert.Equal(t, "noon-ish", rangeErr.Input)
	})
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

func TestEmployees_Directory(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"zoe.json":    `{"role": "Cook", "max_hours": 20}`,
		"bob.json":    `{"name": "Robert", "availability": {"Friday": {"unavailable": ["00:00-12:00"]}}}`,
		"anna.json":   `{"name": "", "role": "Server"}`,
		"broken.json": `{"role": `,
		"wrong.json":  `{"role": ["Server"]}`,
		"meta.json":   `{"version": 2}`,
		"notes.txt":   `{"role": "Server"}`,
	})

	employees, err := loader.New(nil).Employees(dir)
	require.NoError(t, err)

	var names []string
	for _, emp := range employees {
		names = append(names, emp.Name)
	}
	assert.Equal(t, []string{"anna", "Robert", "zoe"}, names, "files are read in name order")

	assert.Equal(t, "Server", employees[0].Role)
	assert.Equal(t, models.DefaultMaxHours, employees[0].MaxHours)
	assert.Empty(t, employees[1].Role)
	assert.Equal(t, []string{"00:00-12:00"}, employees[1].Availability[models.Friday].Unavailable)
	assert.Equal(t, 20, employees[2].MaxHours)
}

func TestEmployees_DirectorySkipsInvalidRecords(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sam.json":  `{"role": "Server", "availability": {"Someday": {}}}`,
		"sue.json":  `{"role": "Server"}`,
		"tom.json":  `{"role": "Cook", "availability": {"Monday": {"unavailable": ["22:00-02:00"]}}}`,
		"ann.json":  `{"role": "Cook", "availability": {"Monday": {"preferred": ["soon"]}}}`,
		"kim.json":  `{"role": "Cook", "availability": {"Monday": {}, "MONDAY": {}}}`,
		"lee.json":  `{"role": "Cook", "max_hours": 500}`,
		"carl.json": `{"role": "Cook", "availability": {"tuesday": {"unavailable": ["00:00-08:00"]}}}`,
	})

	employees, err := loader.New(nil).Employees(dir)
	require.NoError(t, err)

	var names []string
	for _, emp := range employees {
		names = append(names, emp.Name)
	}
	assert.Equal(t, []string{"carl", "sue"}, names)
	assert.Equal(t, []string{"00:00-08:00"}, employees[0].Availability[models.Tuesday].Unavailable)
}

func TestEmployees_DirectoryErrors(t *testing.T) {
	t.Run("NoEmployees", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{"meta.json": `{"version": 2}`})
		_, err := loader.New(nil).Employees(dir)
		assert.ErrorIs(t, err, customerrors.ErrNoEmployees)
	})

	t.Run("DuplicateAcrossFiles", func(t *testing.T) {
		dir := writeFiles(t, map[string]string{
			"a.json": `{"name": "Sam", "role": "Server"}`,
			"b.json": `{"name": "Sam", "role": "Cook"}`,
		})
		_, err := loader.New(nil).Employees(dir)
		assert.ErrorIs(t, err, customerrors.ErrDuplicateEmployee)
	})


	t.Run("MissingPath", func(t *testing.T) {
		_, err := loader.New(nil).Employees(filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestEmployees_AggregateFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{"example.json": roster})
	employees, err := loader.New(nil).Employees(filepath.Join(dir, "example.json"))
	require.NoError(t, err)
	assert.Len(t, employees, 2)
}

const configJSON = `{
  "constraints": {
    "business_hours": {"start": 9, "end": 21},
    "min_shift_length": 2,
    "max_shift_length": 8,
    "daily_max_hours": 8,
    "global_staff_floor": {"Server": 1, "Cook": 1}
  },
  "demand": {
    "Wednesday": {"14": {"Cook": 2}},
    "friday": {"18": 3, "19": {"Server": 3, "Cook": 0}}
  }
}`

const configYAML = `
constraints:
  business_hours:
    start: 0
    end: 24
  min_shift_length: 3
  max_shift_length: 6
  daily_max_hours: 10
  global_staff_floor: 2
demand:
  Saturday:
    12:
      Server: 4
    "13": 3
objective: preference
time_limit_seconds: 2.5
`

func TestDecodeConfig(t *testing.T) {
	cfg, err := loader.New(nil).DecodeConfig(strings.NewReader(configJSON), loader.JSON)
	require.NoError(t, err)

	assert.Equal(t, models.HourWindow{Start: 9, End: 21}, cfg.BusinessHours)
	assert.Equal(t, 2, cfg.MinShiftLength)
	assert.Equal(t, 8, cfg.MaxShiftLength)
	assert.Equal(t, 8, cfg.DailyMaxHours)
	assert.True(t, cfg.GlobalFloor.IsPerRole())
	assert.Equal(t, []string{"Cook", "Server"}, cfg.GlobalFloor.RoleNames())
	assert.Equal(t, models.ObjectiveCost, cfg.Objective)
	assert.Equal(t, models.DefaultTimeLimit, cfg.TimeLimit)

	level, ok := cfg.Override(models.Wednesday, 14)
	require.True(t, ok)
	assert.Equal(t, 2, level.RoleCount("Cook"))

	level, ok = cfg.Override(models.Friday, 18)
	require.True(t, ok)
	assert.False(t, level.IsPerRole())
	assert.Equal(t, 3, level.Count())

	level, ok = cfg.Override(models.Friday, 19)
	require.True(t, ok)
	assert.Equal(t, []string{"Cook", "Server"}, level.RoleNames())

	_, ok = cfg.Override(models.Monday, 14)
	assert.False(t, ok)
}

func TestDecodeConfig_YAML(t *testing.T) {
	cfg, err := loader.New(nil).DecodeConfig(strings.NewReader(configYAML), loader.YAML)
	require.NoError(t, err)

	assert.Equal(t, models.HourWindow{Start: 0, End: 24}, cfg.BusinessHours)
	assert.Equal(t, 3, cfg.MinShiftLength)
	assert.Equal(t, 6, cfg.MaxShiftLength)
	assert.Equal(t, 10, cfg.DailyMaxHours)
	assert.Equal(t, models.Total(2), cfg.GlobalFloor)
	assert.Equal(t, models.ObjectivePreference, cfg.Objective)
	assert.Equal(t, 2500*time.Millisecond, cfg.TimeLimit)

	level, ok := cfg.Override(models.Saturday, 12)
	require.True(t, ok)
	assert.Equal(t, 4, level.RoleCount("Server"))
	level, ok = cfg.Override(models.Saturday, 13)
	require.True(t, ok)
	assert.Equal(t, 3, level.Count())
}

func TestConfig_PicksFormatByExtension(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"customization.json": configJSON,
		"customization.yml":  configYAML,
	})
	l := loader.New(nil)

	cfg, err := l.Config(filepath.Join(dir, "customization.json"))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.BusinessHours.Start)

	cfg, err = l.Config(filepath.Join(dir, "customization.yml"))
	require.NoError(t, err)
	assert.Equal(t, models.ObjectivePreference, cfg.Objective)

	assert.Equal(t, loader.YAML, loader.FormatOf("a/b.YAML"))
	assert.Equal(t, loader.JSON, loader.FormatOf("a/b.conf"))
}

func TestDecodeConfig_Errors(t *testing.T) {
	// base wraps a constraints body and trailing top-level keys into a document.
	base := func(constraints, rest string) string {
		return `{"constraints": {` + constraints + `}` + rest + `}`
	}
	const full = `"business_hours": {"start": 9, "end": 21}, "min_shift_length": 2,
		"max_shift_length": 8, "daily_max_hours": 8, "global_staff_floor": 1`

	tests := map[string]struct {
		doc   string
		err   error
		field string
	}{
		"Malformed": {
			doc: `{"constraints": `,
			err: customerrors.ErrMalformedDocument,
		},
		"MissingConstraints": {
			doc:   `{"demand": {}}`,
			err:   customerrors.ErrMissingField,
			field: "constraints",
		},
		"MissingMinShift": {
			doc: base(`"business_hours": {"start": 9, "end": 21}, "max_shift_length": 8,
				"daily_max_hours": 8, "global_staff_floor": 1`, ""),
			err:   customerrors.ErrMissingField,
			field: "constraints.min_shift_length",
		},
		"MissingOpeningHour": {
			doc: base(`"business_hours": {"end": 21}, "min_shift_length": 2, "max_shift_length": 8,
				"daily_max_hours": 8, "global_staff_floor": 1`, ""),
			err:   customerrors.ErrMissingField,
			field: "constraints.business_hours.start",
		},
		"MissingFloor": {
			doc: base(`"business_hours": {"start": 9, "end": 21}, "min_shift_length": 2,
				"max_shift_length": 8, "daily_max_hours": 8`, ""),
			err:   customerrors.ErrMissingField,
			field: "constraints.global_staff_floor",
		},
		"DailyCapOutOfRange": {
			doc: base(`"business_hours": {"start": 9, "end": 21}, "min_shift_length": 2,
				"max_shift_length": 8, "daily_max_hours": 25, "global_staff_floor": 1`, ""),
			err:   customerrors.ErrInvalidConfig,
			field: "constraints.daily_max_hours",
		},
		"ClosesBeforeOpening": {
			doc: base(`"business_hours": {"start": 21, "end": 9}, "min_shift_length": 2,
				"max_shift_length": 8, "daily_max_hours": 8, "global_staff_floor": 1`, ""),
			err:   customerrors.ErrInvalidConfig,
			field: "constraints.business_hours",
		},
		"MaxBelowMin": {
			doc: base(`"business_hours": {"start": 9, "end": 21}, "min_shift_length": 4,
				"max_shift_length": 3, "daily_max_hours": 8, "global_staff_floor": 1`, ""),
			err:   customerrors.ErrInvalidConfig,
			field: "constraints.max_shift_length",
		},
		"NegativeFloor": {
			doc: base(`"business_hours": {"start": 9, "end": 21}, "min_shift_length": 2,
				"max_shift_length": 8, "daily_max_hours": 8, "global_staff_floor": {"Cook": -1}`, ""),
			err:   customerrors.ErrInvalidConfig,
			field: "constraints.global_staff_floor",
		},
		"FloorNotALevel": {
			doc: base(`"business_hours": {"start": 9, "end": 21}, "min_shift_length": 2,
				"max_shift_length": 8, "daily_max_hours": 8, "global_staff_floor": "lots"`, ""),
			err: customerrors.ErrMalformedDocument,
		},
		"UnknownDay": {
			doc:   base(full, `, "demand": {"Caturday": {"12": 1}}`),
			err:   customerrors.ErrUnknownDay,
			field: "demand.Caturday",
		},
		"HourOutOfRange": {
			doc:   base(full, `, "demand": {"Monday": {"24": 1}}`),
			err:   customerrors.ErrInvalidHour,
			field: "demand.Monday.24",
		},
		"HourNotANumber": {
			doc:   base(full, `, "demand": {"Monday": {"noon": 1}}`),
			err:   customerrors.ErrInvalidHour,
			field: "demand.Monday.noon",
		},
		"NullDemand": {
			doc:   base(full, `, "demand": {"Monday": {"12": null}}`),
			err:   customerrors.ErrMissingField,
			field: "demand.Monday.12",
		},
		"NegativeDemand": {
			doc:   base(full, `, "demand": {"Monday": {"12": -2}}`),
			err:   customerrors.ErrInvalidConfig,
			field: "demand.Monday.12",
		},
		"UnknownObjective": {
			doc:   base(full, `, "objective": "fastest"`),
			err:   customerrors.ErrInvalidConfig,
			field: "objective",
		},
		"NegativeTimeLimit": {
			doc:   base(full, `, "time_limit_seconds": -1`),
			err:   customerrors.ErrInvalidConfig,
			field: "time_limit_seconds",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := loader.New(nil).DecodeConfig(strings.NewReader(tt.doc), loader.JSON)
			require.ErrorIs(t, err, tt.err)
			if tt.field != "" {
				var cfgErr *customerrors.ConfigError
				require.True(t, errors.As(err, &cfgErr), "got %v", err)
				assert.Equal(t, tt.field, cfgErr.Field)
				assert.Contains(t, err.Error(), "config error at "+tt.field)
			}
		})
	}
}
