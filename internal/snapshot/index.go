// Package snapshot holds the in-memory picture of the remote system's person
// records for one run.
package snapshot

import (
	"sort"

	"github.com/roach88/casesync/internal/model"
)

// Index gives access to remote persons by identity key and by internal id.
//
// The index owns its persons. Consumers must not modify the slices of a
// person they looked up; use the Active* accessors for working copies.
type Index struct {
	byKey map[string]*model.Person
	byID  map[int64]*model.Person
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{
		byKey: make(map[string]*model.Person),
		byID:  make(map[int64]*model.Person),
	}
}

// Add registers p. A person with an already indexed key replaces the old
// entry; one without a known id is reachable by key only.
func (ix *Index) Add(p *model.Person) {
	if old, ok := ix.byKey[p.Key]; ok {
		if id, known := old.ID.Value(); known {
			delete(ix.byID, id)
		}
	}
	ix.byKey[p.Key] = p
	if id, ok := p.ID.Value(); ok {
		ix.byID[id] = p
	}
}

// Lookup finds a person by identity key. Keys are compared after the same
// normalization model.NewPerson applies.
func (ix *Index) Lookup(key string) (*model.Person, bool) {
	probe, err := model.NewPerson(key)
	if err != nil {
		return nil, false
	}
	p, ok := ix.byKey[probe.Key]
	return p, ok
}

// ByID finds a person by internal id.
func (ix *Index) ByID(id int64) (*model.Person, bool) {
	p, ok := ix.byID[id]
	return p, ok
}

// Len returns the number of indexed persons.
func (ix *Index) Len() int {
	return len(ix.byKey)
}

// Persons returns all persons ordered by identity key.
func (ix *Index) Persons() []*model.Person {
	out := make([]*model.Person, 0, len(ix.byKey))
	for _, p := range ix.byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// FindByInitials returns the first person, in key order, whose active name
// carries the given initials. Empty initials never match.
func (ix *Index) FindByInitials(initials string) (*model.Person, bool) {
	if initials == "" {
		return nil, false
	}
	for _, p := range ix.Persons() {
		if p.Initials() == initials {
			return p, true
		}
	}
	return nil, false
}
