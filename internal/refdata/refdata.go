// Package refdata holds the remote system's static lookup tables: org units
// and role types. Tables are built once per run and never modified, and are
// passed explicitly to everything that resolves import codes.
package refdata

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Row is one remote row keyed by column name.
type Row = map[string]string

// Column names of the org-unit dataset.
const (
	ColOrgUnitID    = "AI_ID"
	ColOrgUnitCode  = "AI_FORKDN"
	ColOrgUnitTitle = "AI_ADMBET"
)

// Column names of the role-type dataset.
const (
	ColRoleID          = "RO_ID"
	ColRoleName        = "RO_NAVN"
	ColRoleDescription = "RO_BETEGN"
)

// Tables maps import codes to internal ids and back.
// A Tables value is immutable after New returns.
type Tables struct {
	orgByCode  map[string]int64
	orgShort   map[int64]string
	roleByName map[string]int64
	roleDesc   map[int64]string
}

// New builds lookup tables from the org-unit and role-type datasets.
// Rows without a numeric id are rejected; duplicate codes keep the first row.
func New(orgUnitRows, roleRows []Row) (*Tables, error) {
	t := &Tables{
		orgByCode:  make(map[string]int64, len(orgUnitRows)),
		orgShort:   make(map[int64]string, len(orgUnitRows)),
		roleByName: make(map[string]int64, len(roleRows)),
		roleDesc:   make(map[int64]string, len(roleRows)),
	}

	for i, row := range orgUnitRows {
		id, err := parseID(row[ColOrgUnitID])
		if err != nil {
			return nil, fmt.Errorf("org unit row %d: %w", i, err)
		}
		code := strings.TrimSpace(row[ColOrgUnitCode])
		key := codeKey(code)
		if _, dup := t.orgByCode[key]; !dup && key != "" {
			t.orgByCode[key] = id
		}
		t.orgShort[id] = code
	}

	for i, row := range roleRows {
		id, err := parseID(row[ColRoleID])
		if err != nil {
			return nil, fmt.Errorf("role row %d: %w", i, err)
		}
		key := codeKey(row[ColRoleName])
		if _, dup := t.roleByName[key]; !dup && key != "" {
			t.roleByName[key] = id
		}
		desc := strings.TrimSpace(row[ColRoleDescription])
		if desc == "" {
			desc = strings.TrimSpace(row[ColRoleName])
		}
		t.roleDesc[id] = desc
	}

	return t, nil
}

// OrgUnitID resolves an org-unit code. Codes are matched case-insensitively.
func (t *Tables) OrgUnitID(code string) (int64, bool) {
	id, ok := t.orgByCode[codeKey(code)]
	return id, ok
}

// OrgUnitShortName returns the code of an org unit, or "" if unknown.
func (t *Tables) OrgUnitShortName(id int64) string {
	return t.orgShort[id]
}

// RoleTypeID resolves a role-type name. Names are matched case-insensitively.
func (t *Tables) RoleTypeID(name string) (int64, bool) {
	id, ok := t.roleByName[codeKey(name)]
	return id, ok
}

// RoleDescription returns the description of a role type, or "" if unknown.
func (t *Tables) RoleDescription(id int64) string {
	return t.roleDesc[id]
}

// Len returns the number of org units and role types.
func (t *Tables) Len() (orgUnits, roleTypes int) {
	return len(t.orgByCode), len(t.roleByName)
}

// OrgUnitCodes returns all known org-unit codes in sorted order.
func (t *Tables) OrgUnitCodes() []string {
	codes := make([]string, 0, len(t.orgShort))
	for _, c := range t.orgShort {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

func codeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

func parseID(s string) (int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return v, nil
}

// HasOrgUnit reports whether id is a known org unit.
func (t *Tables) HasOrgUnit(id int64) bool {
	_, ok := t.orgShort[id]
	return ok
}

// HasRoleType reports whether id is a known role type.
func (t *Tables) HasRoleType(id int64) bool {
	_, ok := t.roleDesc[id]
	return ok
}
