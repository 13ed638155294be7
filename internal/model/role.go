package model

import (
	"strconv"
	"strings"

	"github.com/roach88/casesync/internal/refdata"
)

// Role assigns a person to an admin unit and journal unit with a role type.
type Role struct {
	ID          ID
	TypeID      int64
	Title       string
	JournalUnit string
	ArchivePart string
	AdminUnitID int64
	Standard    bool
	From        Day
	Until       Day // set means logically deleted
}

// RoleAttrs are the raw attributes of an imported role element.
type RoleAttrs struct {
	Type        string
	OrgUnit     string
	JournalUnit string
	ArchivePart string
	Title       string
	Standard    bool
	From        Day
	Until       Day
}

// NewImportRole resolves an imported role against reference data.
// Unknown role types and org-unit codes yield a *DataError naming the code.
//
// An empty title defaults to "<role description> <org-unit code>".
func NewImportRole(a RoleAttrs, tables *refdata.Tables) (*Role, error) {
	typeID, ok := tables.RoleTypeID(a.Type)
	if !ok {
		return nil, &DataError{Code: ErrCodeIllegalRoleType, Value: a.Type}
	}
	unitID, ok := tables.OrgUnitID(a.OrgUnit)
	if !ok {
		return nil, &DataError{Code: ErrCodeIllegalOrgUnit, Value: a.OrgUnit}
	}

	title := Normalize(a.Title)
	if title == "" {
		title = strings.TrimSpace(tables.RoleDescription(typeID) + " " + tables.OrgUnitShortName(unitID))
	}

	return &Role{
		TypeID:      typeID,
		Title:       title,
		JournalUnit: Normalize(a.JournalUnit),
		ArchivePart: Normalize(a.ArchivePart),
		AdminUnitID: unitID,
		Standard:    a.Standard,
		From:        a.From,
		Until:       a.Until,
	}, nil
}

// RoleFromRow parses a role row and returns it with the owning person id.
func RoleFromRow(row map[string]string) (*Role, int64, error) {
	personID, err := foreignKey(row, ColRolePerson)
	if err != nil {
		return nil, 0, err
	}
	id, err := requiredID(row, ColRoleID)
	if err != nil {
		return nil, 0, err
	}
	typeID, err := foreignKey(row, ColRoleType)
	if err != nil {
		return nil, 0, err
	}
	unitID, err := foreignKey(row, ColRoleAdminUnit)
	if err != nil {
		return nil, 0, err
	}
	from, err := rowDay(row, ColRoleFrom)
	if err != nil {
		return nil, 0, err
	}
	until, err := rowDay(row, ColRoleUntil)
	if err != nil {
		return nil, 0, err
	}
	return &Role{
		ID:          id,
		TypeID:      typeID,
		Title:       Normalize(row[ColRoleTitle]),
		JournalUnit: Normalize(row[ColRoleJournalUnit]),
		ArchivePart: Normalize(row[ColRoleArchivePart]),
		AdminUnitID: unitID,
		Standard:    ParseFlag(row[ColRoleStandard]),
		From:        from,
		Until:       until,
	}, personID, nil
}

// SameEntity reports whether two roles denote the same assignment: by id when
// both ids are known, otherwise by (role type, journal unit, archive part,
// admin unit).
func (r *Role) SameEntity(other *Role) bool {
	if r.ID.IsKnown() && other.ID.IsKnown() {
		return r.ID.Equal(other.ID)
	}
	return r.TypeID == other.TypeID &&
		r.JournalUnit == other.JournalUnit &&
		r.ArchivePart == other.ArchivePart &&
		r.AdminUnitID == other.AdminUnitID
}

// ValueEqual compares every field except the id.
func (r *Role) ValueEqual(other *Role) bool {
	return r.TypeID == other.TypeID &&
		r.Title == other.Title &&
		r.JournalUnit == other.JournalUnit &&
		r.ArchivePart == other.ArchivePart &&
		r.AdminUnitID == other.AdminUnitID &&
		r.Standard == other.Standard &&
		r.From.Equal(other.From) &&
		r.Until.Equal(other.Until)
}

// Expired reports whether the role's effective-until date is not in the future.
func (r *Role) Expired(today Day) bool {
	return expiredBy(r.Until, today)
}

// Clone returns an independent copy.
func (r *Role) Clone() *Role {
	c := *r
	return &c
}

// String identifies the role in log lines.
func (r *Role) String() string {
	var b strings.Builder
	b.WriteString("role ")
	b.WriteString(strconv.FormatInt(r.TypeID, 10))
	b.WriteString("@")
	b.WriteString(strconv.FormatInt(r.AdminUnitID, 10))
	if r.JournalUnit != "" || r.ArchivePart != "" {
		b.WriteString("/" + r.JournalUnit + "/" + r.ArchivePart)
	}
	if r.ID.IsKnown() {
		b.WriteString(" #" + r.ID.String())
	}
	return b.String()
}
