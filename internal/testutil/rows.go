package testutil

import (
	"strconv"
	"strings"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/refdata"
	"github.com/roach88/casesync/internal/remote"
)

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}

// OrgUnitRow is an ADMINDEL row.
func OrgUnitRow(id int64, code string) remote.Row {
	return remote.Row{refdata.ColOrgUnitID: itoa(id), refdata.ColOrgUnitCode: code, refdata.ColOrgUnitTitle: code}
}

// RoleTypeRow is a ROLLE row.
func RoleTypeRow(id int64, name, description string) remote.Row {
	return remote.Row{refdata.ColRoleID: itoa(id), refdata.ColRoleName: name, refdata.ColRoleDescription: description}
}

// PersonRow is a PERSON row without valid-until.
func PersonRow(id int64, key string) remote.Row {
	return remote.Row{
		model.ColPersonID:      itoa(id),
		model.ColPersonKey:     key,
		model.ColPersonCreated: "2015-08-01",
	}
}

// ClosedPersonRow is a PERSON row with valid-until set.
func ClosedPersonRow(id int64, key, until string) remote.Row {
	r := PersonRow(id, key)
	r[model.ColPersonUntil] = until
	return r
}

// NameRow is an active PERNAVN row; the full name is "first last".
func NameRow(id, personID int64, initials, first, last string) remote.Row {
	return remote.Row{
		model.ColNameID:       itoa(id),
		model.ColNamePerson:   itoa(personID),
		model.ColNameInitials: initials,
		model.ColNameFull:     strings.TrimSpace(first + " " + last),
		model.ColNameFirst:    first,
		model.ColNameLast:     last,
		model.ColNameActive:   "1",
		model.ColNameFrom:     "2015-08-01",
	}
}

// AddressRows returns the PERADR link and ADRESSEKP detail rows of one
// address.
func AddressRows(addrID, personID int64, typeCode, postal, postalCode, city string) (link, detail remote.Row) {
	link = remote.Row{model.ColLinkPerson: itoa(personID), model.ColLinkAddress: itoa(addrID)}
	detail = remote.Row{
		model.ColAddressID:         itoa(addrID),
		model.ColAddressType:       typeCode,
		model.ColAddressPostal:     postal,
		model.ColAddressPostalCode: postalCode,
		model.ColAddressCity:       city,
	}
	return link, detail
}

// RoleRow is a PERROLLE row.
func RoleRow(id, personID, typeID, adminUnitID int64, journalUnit, title string) remote.Row {
	return remote.Row{
		model.ColRoleID:          itoa(id),
		model.ColRolePerson:      itoa(personID),
		model.ColRoleType:        itoa(typeID),
		model.ColRoleAdminUnit:   itoa(adminUnitID),
		model.ColRoleJournalUnit: journalUnit,
		model.ColRoleTitle:       title,
		model.ColRoleStandard:    "0",
		model.ColRoleFrom:        "2015-08-01",
	}
}

// PermissionRow is a PERKLAR row.
func PermissionRow(id, personID int64, code string, adminUnitID int64) remote.Row {
	return remote.Row{
		model.ColPermID:          itoa(id),
		model.ColPermPerson:      itoa(personID),
		model.ColPermCode:        code,
		model.ColPermAdminUnit:   itoa(adminUnitID),
		model.ColPermAutoRevoked: "0",
		model.ColPermFrom:        "2015-08-01",
	}
}

// StandardReferenceData loads two org units (USIT=10, SADM=11) and two
// role types (SB=1, LE=2) into g.
func StandardReferenceData(g *FakeGateway) *FakeGateway {
	g.SetRows(remote.OrgUnits, OrgUnitRow(10, "USIT"), OrgUnitRow(11, "SADM"))
	g.SetRows(remote.RoleTypes, RoleTypeRow(1, "SB", "Saksbehandler"), RoleTypeRow(2, "LE", "Leder"))
	return g
}
