package model

import "strings"

// Name is a person's active name. Older names are superseded remotely and not
// kept in memory.
type Name struct {
	ID       ID
	Initials string
	Full     string
	First    string
	Middle   string // read from remote rows only; the import source has none
	Last     string
	Active   bool
	From     Day
}

// NewImportName builds the active name of an imported person.
func NewImportName(initials, full, first, last string, from Day) *Name {
	n := &Name{
		Initials: normalizeInitials(initials),
		Full:     Normalize(full),
		First:    Normalize(first),
		Last:     Normalize(last),
		Active:   true,
		From:     from,
	}
	if n.Full == "" {
		n.Full = strings.TrimSpace(n.First + " " + n.Last)
	}
	return n
}

// NameFromRow parses a name row and returns it with the owning person id.
func NameFromRow(row map[string]string) (*Name, int64, error) {
	personID, err := foreignKey(row, ColNamePerson)
	if err != nil {
		return nil, 0, err
	}
	id, err := requiredID(row, ColNameID)
	if err != nil {
		return nil, 0, err
	}
	from, err := rowDay(row, ColNameFrom)
	if err != nil {
		return nil, 0, err
	}
	return &Name{
		ID:       id,
		Initials: normalizeInitials(row[ColNameInitials]),
		Full:     Normalize(row[ColNameFull]),
		First:    Normalize(row[ColNameFirst]),
		Middle:   Normalize(row[ColNameMiddle]),
		Last:     Normalize(row[ColNameLast]),
		Active:   ParseFlag(row[ColNameActive]),
		From:     from,
	}, personID, nil
}

// ValueEqual compares the transmitted name fields. Id, active flag, dates and
// the never-transmitted middle name are ignored. A nil name equals only nil.
func (n *Name) ValueEqual(other *Name) bool {
	if n == nil || other == nil {
		return n == other
	}
	return n.Initials == other.Initials &&
		n.Full == other.Full &&
		n.First == other.First &&
		n.Last == other.Last
}

// InitialsChanged reports whether other carries different initials.
func (n *Name) InitialsChanged(other *Name) bool {
	if n == nil || other == nil {
		return false
	}
	return n.Initials != other.Initials
}

func normalizeInitials(s string) string {
	return strings.ToUpper(Normalize(s))
}
