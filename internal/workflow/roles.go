package workflow

import "strings"

// Fixed role sequences.
var (
	JobDescriptionRoles = []string{"Supervisor", "HOD", "HR"}
	RequisitionRoles    = []string{"HOD", "Director/Dean", "HR Review"}
)

// Hiring approval roles used by the default table.
const (
	RoleDirectorHR       = "Director HR"
	RoleNursingDirector  = "Nursing Director"
	RoleMedicalDirector  = "Medical Director"
	RoleFinanceDirector  = "Finance Director"
	RoleHospitalDirector = "Hospital Director"
	RoleDean             = "Dean"
)

// RoleResolver computes the approver roles for an entity from its
// department and section. Only hiring approvals use a resolver.
type RoleResolver interface {
	Resolve(kind Kind, department, section string) []string
}

// RoleTable is the lookup table for hiring approvals: First, then the
// director matched by section (checked first) or department, then Last.
type RoleTable struct {
	First       string
	Last        string
	Default     string
	departments map[string]string
	sections    map[string]string
}

// NewRoleTable builds a table. Keys are matched case- and space-insensitively.
func NewRoleTable(first, last, fallback string, departments, sections map[string]string) *RoleTable {
	t := &RoleTable{
		First:       first,
		Last:        last,
		Default:     fallback,
		departments: make(map[string]string, len(departments)),
		sections:    make(map[string]string, len(sections)),
	}
	for k, v := range departments {
		t.departments[normalize(k)] = v
	}
	for k, v := range sections {
		t.sections[normalize(k)] = v
	}
	return t
}

// DefaultRoleTable returns the hospital's standard table.
func DefaultRoleTable() *RoleTable {
	return NewRoleTable(RoleDirectorHR, RoleDean, RoleHospitalDirector,
		map[string]string{
			"Human Resource":   RoleDirectorHR,
			"Human Resources":  RoleDirectorHR,
			"Nursing":          RoleNursingDirector,
			"Medical Services": RoleMedicalDirector,
			"Finance":          RoleFinanceDirector,
			"Accounts":         RoleFinanceDirector,
		},
		map[string]string{
			"Nursing": RoleNursingDirector,
		},
	)
}

// WithOverrides returns a copy of t with non-empty fields and map entries
// replaced.
func (t *RoleTable) WithOverrides(first, last, fallback string, departments, sections map[string]string) *RoleTable {
	out := NewRoleTable(t.First, t.Last, t.Default, nil, nil)
	for k, v := range t.departments {
		out.departments[k] = v
	}
	for k, v := range t.sections {
		out.sections[k] = v
	}
	if first != "" {
		out.First = first
	}
	if last != "" {
		out.Last = last
	}
	if fallback != "" {
		out.Default = fallback
	}
	for k, v := range departments {
		out.departments[normalize(k)] = v
	}
	for k, v := range sections {
		out.sections[normalize(k)] = v
	}
	return out
}

// Resolve implements RoleResolver. Duplicate roles are dropped, keeping the
// first occurrence.
func (t *RoleTable) Resolve(kind Kind, department, section string) []string {
	if kind != KindHiringApproval {
		return nil
	}

	director := t.Default
	if r, ok := t.sections[normalize(section)]; ok && section != "" {
		director = r
	} else if r, ok := t.departments[normalize(department)]; ok && department != "" {
		director = r
	}

	return dedupe([]string{t.First, director, t.Last})
}

func dedupe(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	return out
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
