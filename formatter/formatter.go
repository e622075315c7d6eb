package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"shift-scheduler/models"
)

// Format converts a solved assignment into the sparse day/hour/role result.
// Every day is present; hours and roles nobody works are left out. Names are
// listed in employee order.
func Format(employees []models.Employee, a *models.Assignment) models.ScheduleResult {
	result := make(models.ScheduleResult, 0, models.DaysPerWeek)
	for _, d := range models.Week {
		day := models.DaySchedule{Day: d.String(), Hours: []models.HourSlot{}}
		for h := 0; h < models.HoursPerDay; h++ {
			roles := make(map[string][]string)
			for i, emp := range employees {
				if a.Works(i, d, h) {
					roles[emp.Role] = append(roles[emp.Role], emp.Name)
				}
			}
			if len(roles) == 0 {
				continue
			}
			day.Hours = append(day.Hours, models.HourSlot{Time: fmt.Sprintf("%02d:00", h), Roles: roles})
		}
		result = append(result, day)
	}
	return result
}

// FormatJSON returns the result document: a list of seven day entries
func FormatJSON(result models.ScheduleResult) string {
	jsonBytes, _ := json.MarshalIndent(result, "", "  ")
	return string(jsonBytes)
}

// errorDocument is the result document of a failed solve.
type errorDocument struct {
	Error string `json:"error"`
}

// FormatError returns the failure document {"error": message}.
func FormatError(err error) string {
	jsonBytes, _ := json.MarshalIndent(errorDocument{Error: err.Error()}, "", "  ")
	return string(jsonBytes)
}

// FormatText returns the text representation of the schedule
func FormatText(result models.ScheduleResult) string {
	var sb strings.Builder
	for _, day := range result {
		sb.WriteString(day.Day)
		sb.WriteString("\n")
		if len(day.Hours) == 0 {
			sb.WriteString("  none\n")
			continue
		}
		for _, slot := range day.Hours {
			sb.WriteString("  ")
			sb.WriteString(formatTextLine(slot))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// FormatCSV returns the CSV representation of the schedule, one row per
// day, hour and role.
func FormatCSV(result models.ScheduleResult) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	writer.Write([]string{"Day", "Hour", "Role", "Count", "Employees"})

	for _, day := range result {
		for _, slot := range day.Hours {
			for _, role := range sortedRoles(slot.Roles) {
				names := slot.Roles[role]
				writer.Write([]string{
					day.Day,
					slot.Time,
					role,
					fmt.Sprintf("%d", len(names)),
					strings.Join(names, "; "),
				})
			}
		}
	}

	writer.Flush()
	return sb.String()
}

// formatTextLine formats a single hour line for text output
func formatTextLine(slot models.HourSlot) string {
	total := 0
	var parts []string
	for _, role := range sortedRoles(slot.Roles) {
		names := slot.Roles[role]
		total += len(names)
		parts = append(parts, fmt.Sprintf("%s: %s", role, strings.Join(names, ", ")))
	}
	return fmt.Sprintf("%s : total=%d ; [%s]", slot.Time, total, strings.Join(parts, "; "))
}

// EmployeeSummary is one employee's share of a schedule.
type EmployeeSummary struct {
	Name  string
	Role  string
	Hours int
	Cost  decimal.Decimal
}

// Summary aggregates scheduled hours and labour cost.
type Summary struct {
	TotalHours  int
	TotalCost   decimal.Decimal
	HoursByRole map[string]int
	Employees   []EmployeeSummary
}

// Summarize totals hours and cost per employee, in employee order.
// Employees without an hourly rate contribute hours but no cost.
func Summarize(employees []models.Employee, result models.ScheduleResult) Summary {
	hours := make(map[string]int, len(employees))
	for _, day := range result {
		for _, slot := range day.Hours {
			for _, names := range slot.Roles {
				for _, name := range names {
					hours[name]++
				}
			}
		}
	}

	summary := Summary{
		TotalCost:   decimal.Zero,
		HoursByRole: make(map[string]int),
		Employees:   make([]EmployeeSummary, 0, len(employees)),
	}
	for _, emp := range employees {
		h := hours[emp.Name]
		cost := emp.HourlyRate.Mul(decimal.NewFromInt(int64(h)))
		summary.Employees = append(summary.Employees, EmployeeSummary{
			Name:  emp.Name,
			Role:  emp.Role,
			Hours: h,
			Cost:  cost,
		})
		summary.TotalHours += h
		summary.TotalCost = summary.TotalCost.Add(cost)
		if h > 0 {
			summary.HoursByRole[emp.Role] += h
		}
	}
	return summary
}

// FormatSummary renders a summary as a short text table.
func FormatSummary(s Summary) string {
	var sb strings.Builder
	for _, e := range s.Employees {
		sb.WriteString(fmt.Sprintf("%-20s %-12s %3dh %10s\n", e.Name, e.Role, e.Hours, e.Cost.StringFixed(2)))
	}
	sb.WriteString(fmt.Sprintf("%-20s %-12s %3dh %10s\n", "TOTAL", "", s.TotalHours, s.TotalCost.StringFixed(2)))
	return sb.String()
}

// sortedRoles returns sorted role names
func sortedRoles(roles map[string][]string) []string {
	names := make([]string, 0, len(roles))
	for role := range roles {
		names = append(names, role)
	}
	sort.Strings(names)
	return names
}
