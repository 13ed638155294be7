package model

import (
	"fmt"

	"github.com/roach88/casesync/internal/refdata"
)

// Permission grants a permission type (TgKode) at an admin unit.
type Permission struct {
	ID          ID
	Code        string
	AdminUnitID int64
	OperatorKey string // identity key of the granting operator (import side)
	OperatorID  ID     // resolved operator person id
	AutoRevoked bool
	From        Day
	Until       Day
}

// PermissionAttrs are the raw attributes of an imported permission element.
type PermissionAttrs struct {
	Code        string
	OrgUnit     string
	Operator    string
	AutoRevoked bool
	From        Day
	Until       Day
}

// NewImportPermission resolves an imported permission against reference data.
func NewImportPermission(a PermissionAttrs, tables *refdata.Tables) (*Permission, error) {
	code := normalizeInitials(a.Code)
	if code == "" {
		return nil, badValue("type", a.Code)
	}
	unitID, ok := tables.OrgUnitID(a.OrgUnit)
	if !ok {
		return nil, &DataError{Code: ErrCodeIllegalOrgUnit, Value: a.OrgUnit}
	}
	return &Permission{
		Code:        code,
		AdminUnitID: unitID,
		OperatorKey: Normalize(a.Operator),
		AutoRevoked: a.AutoRevoked,
		From:        a.From,
		Until:       a.Until,
	}, nil
}

// PermissionFromRow parses a permission row and returns it with the owning
// person id.
func PermissionFromRow(row map[string]string) (*Permission, int64, error) {
	personID, err := foreignKey(row, ColPermPerson)
	if err != nil {
		return nil, 0, err
	}
	id, err := requiredID(row, ColPermID)
	if err != nil {
		return nil, 0, err
	}
	unitID, err := foreignKey(row, ColPermAdminUnit)
	if err != nil {
		return nil, 0, err
	}
	operator, err := rowID(row, ColPermOperator)
	if err != nil {
		return nil, 0, err
	}
	from, err := rowDay(row, ColPermFrom)
	if err != nil {
		return nil, 0, err
	}
	until, err := rowDay(row, ColPermUntil)
	if err != nil {
		return nil, 0, err
	}
	return &Permission{
		ID:          id,
		Code:        normalizeInitials(row[ColPermCode]),
		AdminUnitID: unitID,
		OperatorID:  operator,
		AutoRevoked: ParseFlag(row[ColPermAutoRevoked]),
		From:        from,
		Until:       until,
	}, personID, nil
}

// SameEntity compares ids when both are known, otherwise (code, admin unit).
func (p *Permission) SameEntity(other *Permission) bool {
	if p.ID.IsKnown() && other.ID.IsKnown() {
		return p.ID.Equal(other.ID)
	}
	return p.Code == other.Code && p.AdminUnitID == other.AdminUnitID
}

// Expired reports whether the permission's effective-until is not in the future.
func (p *Permission) Expired(today Day) bool {
	return expiredBy(p.Until, today)
}

// Clone returns an independent copy.
func (p *Permission) Clone() *Permission {
	c := *p
	return &c
}

func (p *Permission) String() string {
	if p.ID.IsKnown() {
		return fmt.Sprintf("permission %s@%d #%s", p.Code, p.AdminUnitID, p.ID)
	}
	return fmt.Sprintf("permission %s@%d", p.Code, p.AdminUnitID)
}
