// Package identity maps campus ID formats to roles.
package identity

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleAdmin   = "admin"
)

type formatRule struct {
	role    string
	pattern *regexp.Regexp
	hint    string
}

var formatRules = []formatRule{
	{RoleStudent, regexp.MustCompile(`^S\d{8}$`), "S followed by 8 digits (e.g. S12345678)"},
	{RoleFaculty, regexp.MustCompile(`^F\d{5}$`), "F followed by 5 digits (e.g. F12345)"},
	{RoleAdmin, regexp.MustCompile(`^A\d{4}$`), "A followed by 4 digits (e.g. A1234)"},
}

// DeriveRole returns the role encoded in a campus ID, or an error naming the
// accepted formats.
func DeriveRole(campusID string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(campusID))
	for _, r := range formatRules {
		if r.pattern.MatchString(id) {
			return r.role, nil
		}
	}
	return "", fmt.Errorf("unrecognised campus ID format: %s", hints())
}

// Normalize upper-cases and trims a campus ID so lookups are
// case-insensitive, matching how the IDs are stored.
func Normalize(campusID string) string {
	return strings.ToUpper(strings.TrimSpace(campusID))
}

func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return true
	}
	return false
}

func hints() string {
	parts := make([]string, len(formatRules))
	for i, r := range formatRules {
		parts[i] = r.hint
	}
	return strings.Join(parts, "; ")
}
