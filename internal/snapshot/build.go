package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/casesync/internal/model"
	"github.com/roach88/casesync/internal/refdata"
	"github.com/roach88/casesync/internal/remote"
)

// Stats counts what Build loaded and skipped.
type Stats struct {
	Persons     int
	Names       int
	Addresses   int
	Roles       int
	Permissions int
	Skipped     int
}

// Build fetches the person datasets through gw and joins them into an Index.
//
// Datasets are read in a fixed order: persons, names, address links,
// address details, roles, permissions. Any fetch error (including a
// truncated result) aborts the build. Rows that cannot be parsed, that lack
// their own id or that refer to unknown persons are logged and skipped.
//
// Roles and permissions whose effective-until is not after today are filed
// in the persons' removed buckets.
func Build(ctx context.Context, gw remote.Gateway, tables *refdata.Tables, today model.Day, logger *slog.Logger) (*Index, Stats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b := &builder{
		ix:     NewIndex(),
		tables: tables,
		today:  today,
		logger: logger.With(slog.String("component", "snapshot")),
	}

	steps := []struct {
		ds   remote.Dataset
		load func([]remote.Row)
	}{
		{remote.Persons, b.persons},
		{remote.Names, b.names},
		{remote.AddressLinks, b.addressLinks},
		{remote.AddressDetails, b.addressDetails},
		{remote.Roles, b.roles},
		{remote.Permissions, b.permissions},
	}
	for _, s := range steps {
		rows, err := remote.Fetch(ctx, gw, s.ds)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("snapshot %s: %w", s.ds, err)
		}
		s.load(rows)
	}

	b.logger.Info("remote snapshot built",
		slog.Int("persons", b.stats.Persons),
		slog.Int("names", b.stats.Names),
		slog.Int("addresses", b.stats.Addresses),
		slog.Int("roles", b.stats.Roles),
		slog.Int("permissions", b.stats.Permissions),
		slog.Int("skipped_rows", b.stats.Skipped),
	)
	return b.ix, b.stats, nil
}

type builder struct {
	ix     *Index
	tables *refdata.Tables
	today  model.Day
	logger *slog.Logger
	stats  Stats

	// address id -> owning person, from the link dataset
	addrOwner map[int64]*model.Person
}

func (b *builder) skip(ds remote.Dataset, reason string, err error, row remote.Row) {
	b.stats.Skipped++
	attrs := []any{slog.String("dataset", ds.RowTag), slog.String("reason", reason)}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	attrs = append(attrs, slog.Any("row", row))
	b.logger.Warn("skipping remote row", attrs...)
}

func (b *builder) owner(ds remote.Dataset, personID int64, row remote.Row) (*model.Person, bool) {
	p, ok := b.ix.ByID(personID)
	if !ok {
		b.skip(ds, fmt.Sprintf("unknown person %d", personID), nil, row)
	}
	return p, ok
}

func (b *builder) persons(rows []remote.Row) {
	for _, row := range rows {
		p, err := model.PersonFromRow(row)
		if err != nil {
			b.skip(remote.Persons, "unparsable", err, row)
			continue
		}
		if _, dup := b.ix.Lookup(p.Key); dup {
			b.skip(remote.Persons, "duplicate identity key", nil, row)
			continue
		}
		b.ix.Add(p)
		b.stats.Persons++
	}
}

// names keeps only active names. A person with several active names keeps
// the most recent one.
func (b *builder) names(rows []remote.Row) {
	for _, row := range rows {
		n, personID, err := model.NameFromRow(row)
		if err != nil {
			b.skip(remote.Names, "unparsable", err, row)
			continue
		}
		if !n.Active {
			continue
		}
		p, ok := b.owner(remote.Names, personID, row)
		if !ok {
			continue
		}
		if p.Name != nil && n.From.Before(p.Name.From) {
			continue
		}
		if p.Name == nil {
			b.stats.Names++
		}
		p.Name = n
	}
}

func (b *builder) addressLinks(rows []remote.Row) {
	b.addrOwner = make(map[int64]*model.Person, len(rows))
	for _, row := range rows {
		personID, err1 := model.ParseID(row[model.ColLinkPerson])
		addrID, err2 := model.ParseID(row[model.ColLinkAddress])
		pid, ok1 := personID.Value()
		aid, ok2 := addrID.Value()
		if err1 != nil || err2 != nil || !ok1 || !ok2 {
			b.skip(remote.AddressLinks, "unparsable", nil, row)
			continue
		}
		p, ok := b.owner(remote.AddressLinks, pid, row)
		if !ok {
			continue
		}
		b.addrOwner[aid] = p
	}
}

func (b *builder) addressDetails(rows []remote.Row) {
	for _, row := range rows {
		a, err := model.AddressFromRow(row)
		if err != nil {
			b.skip(remote.AddressDetails, "unparsable", err, row)
			continue
		}
		id, _ := a.ID.Value()
		p, ok := b.addrOwner[id]
		if !ok {
			// Addresses of other entity kinds share the dataset.
			continue
		}
		p.SetAddress(a)
		b.stats.Addresses++
	}
}

func (b *builder) roles(rows []remote.Row) {
	for _, row := range rows {
		r, personID, err := model.RoleFromRow(row)
		if err != nil {
			b.skip(remote.Roles, "unparsable", err, row)
			continue
		}
		p, ok := b.owner(remote.Roles, personID, row)
		if !ok {
			continue
		}
		if b.tables != nil && (!b.tables.HasRoleType(r.TypeID) || !b.tables.HasOrgUnit(r.AdminUnitID)) {
			b.logger.Debug("role refers to unknown reference data",
				slog.String("person", p.Key), slog.String("role", r.String()))
		}
		p.AddRole(r, b.today)
		b.stats.Roles++
	}
}

func (b *builder) permissions(rows []remote.Row) {
	for _, row := range rows {
		perm, personID, err := model.PermissionFromRow(row)
		if err != nil {
			b.skip(remote.Permissions, "unparsable", err, row)
			continue
		}
		p, ok := b.owner(remote.Permissions, personID, row)
		if !ok {
			continue
		}
		p.AddPermission(perm, b.today)
		b.stats.Permissions++
	}
}
