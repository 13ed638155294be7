package model

import (
	"sort"
	"strings"
)

// Person is an identity record and everything it owns.
//
// Key is the external login used for matching and is never empty. ID stays
// unknown until the remote system has assigned one.
type Person struct {
	Key     string
	ID      ID
	Created Day
	// ValidUntil set means the record is soft-deleted (or scheduled to be).
	ValidUntil Day
	// Deletable is the import's request to close the record.
	Deletable bool
	// AltKeys are former identity keys, tried in order when Key has no match.
	AltKeys []string

	New                   bool
	UsernameNeedsUpdate   bool
	ValidUntilNeedsUpdate bool

	Name      *Name
	Addresses map[AddressType]*Address

	Roles        []*Role
	RemovedRoles []*Role

	Permissions        []*Permission
	RemovedPermissions []*Permission
}

// NewPerson creates an empty person with the given identity key.
func NewPerson(key string) (*Person, error) {
	key = normalizeKey(key)
	if key == "" {
		return nil, &DataError{Code: ErrCodeMissingIdentity, Value: key}
	}
	return &Person{
		Key:       key,
		Addresses: make(map[AddressType]*Address),
	}, nil
}

// PersonFromRow parses a person row.
func PersonFromRow(row map[string]string) (*Person, error) {
	p, err := NewPerson(row[ColPersonKey])
	if err != nil {
		return nil, err
	}
	if p.ID, err = requiredID(row, ColPersonID); err != nil {
		return nil, err
	}
	if p.Created, err = rowDay(row, ColPersonCreated); err != nil {
		return nil, err
	}
	if p.ValidUntil, err = rowDay(row, ColPersonUntil); err != nil {
		return nil, err
	}
	return p, nil
}

// SameEntity reports whether both persons carry the same identity key.
func (p *Person) SameEntity(other *Person) bool {
	return other != nil && p.Key == other.Key
}

// Initials returns the active name's initials, or "" without a name.
func (p *Person) Initials() string {
	if p.Name == nil {
		return ""
	}
	return p.Name.Initials
}

// AddAltKey records a former identity key. Duplicates and the current key are ignored.
func (p *Person) AddAltKey(key string) {
	key = normalizeKey(key)
	if key == "" || key == p.Key {
		return
	}
	for _, k := range p.AltKeys {
		if k == key {
			return
		}
	}
	p.AltKeys = append(p.AltKeys, key)
}

// SetAddress stores a under its type, replacing any previous one.
func (p *Person) SetAddress(a *Address) {
	if p.Addresses == nil {
		p.Addresses = make(map[AddressType]*Address)
	}
	p.Addresses[a.Type] = a
}

// AddRole files r as active, or as removed when it has already expired.
func (p *Person) AddRole(r *Role, today Day) {
	if r.Expired(today) {
		p.RemovedRoles = append(p.RemovedRoles, r)
		return
	}
	p.Roles = append(p.Roles, r)
}

// AddPermission files perm as active, or as removed when it has already expired.
func (p *Person) AddPermission(perm *Permission, today Day) {
	if perm.Expired(today) {
		p.RemovedPermissions = append(p.RemovedPermissions, perm)
		return
	}
	p.Permissions = append(p.Permissions, perm)
}

// ActiveRoles returns a deep copy of the active roles. Callers may mutate
// the result freely without touching p.
func (p *Person) ActiveRoles() []*Role {
	out := make([]*Role, len(p.Roles))
	for i, r := range p.Roles {
		out[i] = r.Clone()
	}
	return out
}

// ActivePermissions returns a deep copy of the active permissions.
func (p *Person) ActivePermissions() []*Permission {
	out := make([]*Permission, len(p.Permissions))
	for i, perm := range p.Permissions {
		out[i] = perm.Clone()
	}
	return out
}

// ClosedAsOf reports whether ValidUntil is set and not in the future.
func (p *Person) ClosedAsOf(today Day) bool {
	return expiredBy(p.ValidUntil, today)
}

// AddressTypes returns the types of p's addresses in a stable order.
func (p *Person) AddressTypes() []AddressType {
	types := make([]AddressType, 0, len(p.Addresses))
	for t := range p.Addresses {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func normalizeKey(s string) string {
	return strings.ToLower(Normalize(s))
}
