package importfile

import (
	"fmt"
	"strings"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/refdata"
)

// Rejected is an import record that could not be turned into a person.
type Rejected struct {
	Index int    // position in the file, 0-based
	Key   string // raw identity key, possibly empty
	Err   error  // a *model.DataError
}

// Resolve converts the records of f into persons, resolving role and
// permission codes through tables. A record with any bad value is rejected
// as a whole and reported in the second return value; the remaining records
// are still resolved.
//
// Roles and permissions whose effective-until is not after today go to the
// persons' removed buckets.
func (f *File) Resolve(tables *refdata.Tables, today model.Day) ([]*model.Person, []Rejected) {
	var (
		persons  []*model.Person
		rejected []Rejected
	)
	for i := range f.Persons {
		rec := &f.Persons[i]
		p, err := rec.resolve(tables, today)
		if err != nil {
			rejected = append(rejected, Rejected{Index: i, Key: strings.TrimSpace(rec.Key), Err: err})
			continue
		}
		persons = append(persons, p)
	}
	return persons, rejected
}

func (rec *Record) resolve(tables *refdata.Tables, today model.Day) (*model.Person, error) {
	p, err := model.NewPerson(rec.Key)
	if err != nil {
		return nil, err
	}
	p.Deletable = model.ParseFlag(rec.Deletable)

	for _, alt := range rec.AltIDs {
		p.AddAltKey(alt.Key)
	}

	nameFrom, err := day("namefrom", rec.NameFrom)
	if err != nil {
		return nil, err
	}
	if rec.Initials != "" || rec.FirstName != "" || rec.LastName != "" || rec.FullName != "" {
		if nameFrom.IsZero() {
			nameFrom = today
		}
		p.Name = model.NewImportName(rec.Initials, rec.FullName, rec.FirstName, rec.LastName, nameFrom)
	}

	if rec.PostalAddress != "" || rec.PostalCode != "" || rec.City != "" || rec.Email != "" || rec.Phone != "" || rec.AddressName != "" {
		p.SetAddress(model.NewImportAddress(model.AddressWork,
			rec.AddressName, rec.PostalAddress, rec.PostalCode, rec.City, rec.Email, rec.Phone))
	}
	for _, a := range rec.Addresses {
		t := model.AddressType(strings.ToLower(strings.TrimSpace(a.Type)))
		if !t.Valid() {
			return nil, &model.DataError{Code: model.ErrCodeBadValue, Field: "address type", Value: a.Type}
		}
		p.SetAddress(model.NewImportAddress(t, a.Name, a.PostalAddress, a.PostalCode, a.City, a.Email, a.Phone))
	}

	for _, rr := range rec.Roles {
		attrs := model.RoleAttrs{
			Type:        rr.Type,
			OrgUnit:     rr.OrgUnit,
			JournalUnit: rr.JournalUnit,
			ArchivePart: rr.ArchivePart,
			Title:       rr.Title,
			Standard:    model.ParseFlag(rr.Standard),
		}
		if attrs.From, err = day("role from", rr.From); err != nil {
			return nil, err
		}
		if attrs.Until, err = day("role until", rr.Until); err != nil {
			return nil, err
		}
		r, err := model.NewImportRole(attrs, tables)
		if err != nil {
			return nil, err
		}
		p.AddRole(r, today)
	}

	for _, pr := range rec.Permissions {
		attrs := model.PermissionAttrs{
			Code:        pr.Type,
			OrgUnit:     pr.OrgUnit,
			Operator:    pr.Operator,
			AutoRevoked: model.ParseFlag(pr.AutoRevoked),
		}
		if attrs.From, err = day("permission from", pr.From); err != nil {
			return nil, err
		}
		if attrs.Until, err = day("permission until", pr.Until); err != nil {
			return nil, err
		}
		perm, err := model.NewImportPermission(attrs, tables)
		if err != nil {
			return nil, err
		}
		p.AddPermission(perm, today)
	}

	return p, nil
}

func day(field, raw string) (model.Day, error) {
	d, err := model.ParseDay(raw)
	if err != nil {
		return model.Day{}, &model.DataError{Code: model.ErrCodeBadValue, Field: field, Value: raw}
	}
	return d, nil
}

// String summarizes a rejection for log lines.
func (r Rejected) String() string {
	return fmt.Sprintf("record %d (%q): %v", r.Index, r.Key, r.Err)
}
