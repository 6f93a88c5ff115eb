package routeaccess

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"hrms-backend/shared/database/models"
)

// Evaluator decides navigational access from a per-user-type list of allowed path prefixes.
// It is a coarse gate; mutating operations are authorized against the role matrix.
type Evaluator struct {
	allow map[string][]string
}

// DefaultAllowLists is used when no override file is configured
func DefaultAllowLists() map[string][]string {
	return map[string][]string{
		models.UserTypeSuperAdmin: {"/dashboard", "/hr/", "/iot/", "/settings", "/calendar", "/profile"},
		models.UserTypeHRAdmin: {
			"/dashboard", "/hr/employees", "/hr/attendance", "/hr/payroll",
			"/hr/organization", "/hr/roles", "/hr/roles/", "/calendar", "/profile",
		},
		models.UserTypeHRManager: {"/dashboard", "/hr/employees", "/hr/attendance", "/calendar", "/profile"},
		models.UserTypeEmployee:  {"/dashboard", "/attendance/check-in", "/attendance/history", "/calendar", "/profile"},
		models.UserTypeIoTAdmin:  {"/dashboard", "/iot/", "/profile"},
	}
}

func New(allow map[string][]string) *Evaluator {
	copied := make(map[string][]string, len(allow))
	for userType, routes := range allow {
		kept := make([]string, 0, len(routes))
		for _, r := range routes {
			if r = strings.TrimSpace(r); r != "" {
				kept = append(kept, r)
			}
		}
		copied[userType] = kept
	}
	return &Evaluator{allow: copied}
}

func NewDefault() *Evaluator {
	return New(DefaultAllowLists())
}

type fileFormat struct {
	UserTypes map[string][]string `yaml:"user_types"`
}

// Load reads allow-lists from a YAML file of the form
//
//	user_types:
//	  HR_ADMIN: ["/dashboard", "/hr/roles/"]
//
// An empty path returns the defaults.
func Load(path string) (*Evaluator, error) {
	if path == "" {
		return NewDefault(), nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read route access file: %w", err)
	}
	return Parse(raw)
}

// Parse builds an Evaluator from YAML content
func Parse(raw []byte) (*Evaluator, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("invalid route access file: %w", err)
	}
	if len(f.UserTypes) == 0 {
		return nil, fmt.Errorf("invalid route access file: no user_types defined")
	}
	return New(f.UserTypes), nil
}

// CanAccessRoute returns true when pathname equals or starts with an allowed entry of userType.
// Empty input and unknown user types are denied.
func (e *Evaluator) CanAccessRoute(pathname, userType string) bool {
	if pathname == "" || userType == "" {
		return false
	}

	for _, prefix := range e.allow[userType] {
		if pathname == prefix || strings.HasPrefix(pathname, prefix) {
			return true
		}
	}
	return false
}

// AllowedRoutes returns a copy of the allow-list of userType
func (e *Evaluator) AllowedRoutes(userType string) []string {
	routes := e.allow[userType]
	out := make([]string, len(routes))
	copy(out, routes)
	return out
}

// UserTypes returns the user types that have an allow-list
func (e *Evaluator) UserTypes() []string {
	out := make([]string, 0, len(e.allow))
	for t := range e.allow {
		out = append(out, t)
	}
	return out
}
