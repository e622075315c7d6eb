package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// StaffLevel is a staffing minimum: either a head count over all employees
// or a minimum per role. Documents express it as an integer or as an object
// mapping role to count.
type StaffLevel struct {
	perRole bool
	total   int
	roles   map[string]int
}

// Total returns a level requiring n employees of any role.
func Total(n int) StaffLevel {
	return StaffLevel{total: n}
}

// PerRole returns a level requiring counts[role] employees of each role.
func PerRole(counts map[string]int) StaffLevel {
	roles := make(map[string]int, len(counts))
	for role, n := range counts {
		roles[role] = n
	}
	return StaffLevel{perRole: true, roles: roles}
}

// IsPerRole reports whether the level is a role mapping.
func (s StaffLevel) IsPerRole() bool {
	return s.perRole
}

// Count returns the head count of a Total level. It is 0 for role mappings.
func (s StaffLevel) Count() int {
	return s.total
}

// RoleNames returns the roles of a PerRole level in ascending order.
func (s StaffLevel) RoleNames() []string {
	names := make([]string, 0, len(s.roles))
	for role := range s.roles {
		names = append(names, role)
	}
	sort.Strings(names)
	return names
}

// RoleCount returns the minimum for role, 0 when the role is not listed.
func (s StaffLevel) RoleCount(role string) int {
	return s.roles[role]
}

// Validate rejects negative counts.
func (s StaffLevel) Validate() error {
	if !s.perRole {
		if s.total < 0 {
			return fmt.Errorf("staff count %d is negative", s.total)
		}
		return nil
	}
	for _, role := range s.RoleNames() {
		if s.roles[role] < 0 {
			return fmt.Errorf("staff count %d for role %q is negative", s.roles[role], role)
		}
	}
	return nil
}

func (s StaffLevel) String() string {
	if !s.perRole {
		return fmt.Sprintf("%d", s.total)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, role := range s.RoleNames() {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "%s: %d", role, s.roles[role])
	}
	buf.WriteByte('}')
	return buf.String()
}

func (s StaffLevel) MarshalJSON() ([]byte, error) {
	if s.perRole {
		return json.Marshal(s.roles)
	}
	return json.Marshal(s.total)
}

func (s *StaffLevel) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var roles map[string]int
		if err := json.Unmarshal(data, &roles); err != nil {
			return fmt.Errorf("staff level: %w", err)
		}
		*s = PerRole(roles)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("staff level must be an integer or a role mapping: %w", err)
	}
	*s = Total(n)
	return nil
}

func (s *StaffLevel) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.MappingNode {
		var roles map[string]int
		if err := node.Decode(&roles); err != nil {
			return fmt.Errorf("staff level: %w", err)
		}
		*s = PerRole(roles)
		return nil
	}
	var n int
	if err := node.Decode(&n); err != nil {
		return fmt.Errorf("staff level must be an integer or a role mapping: %w", err)
	}
	*s = Total(n)
	return nil
}
