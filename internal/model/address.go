package model

// AddressType tags the kind of an address owned by a person.
type AddressType string

const (
	AddressWork    AddressType = "work"
	AddressPrivate AddressType = "private"
	AddressOrg     AddressType = "org"
)

var addressCodes = map[AddressType]string{
	AddressWork:    "A",
	AddressPrivate: "P",
	AddressOrg:     "O",
}

// Code returns the remote AK_TYPE code for t, or "" for an unknown type.
func (t AddressType) Code() string {
	return addressCodes[t]
}

// Valid reports whether t is one of the fixed address types.
func (t AddressType) Valid() bool {
	_, ok := addressCodes[t]
	return ok
}

// AddressTypeFromCode maps a remote AK_TYPE code back to its tag.
func AddressTypeFromCode(code string) (AddressType, bool) {
	for t, c := range addressCodes {
		if c == code {
			return t, true
		}
	}
	return "", false
}

// Address is a contact address owned exclusively by one person.
type Address struct {
	ID         ID
	Type       AddressType
	Name       string
	Postal     string // street/postal text, at most MaxPostalLength characters
	PostalCode string
	City       string
	Email      string
	Phone      string
}

// NewImportAddress builds an address from import attributes, truncating an
// over-long postal text.
func NewImportAddress(t AddressType, name, postal, postalCode, city, email, phone string) *Address {
	return &Address{
		Type:       t,
		Name:       Normalize(name),
		Postal:     TruncatePostal(Normalize(postal)),
		PostalCode: Normalize(postalCode),
		City:       Normalize(city),
		Email:      Normalize(email),
		Phone:      Normalize(phone),
	}
}

// AddressFromRow parses an address-detail row.
func AddressFromRow(row map[string]string) (*Address, error) {
	id, err := requiredID(row, ColAddressID)
	if err != nil {
		return nil, err
	}
	t, ok := AddressTypeFromCode(Normalize(row[ColAddressType]))
	if !ok {
		return nil, badValue(ColAddressType, row[ColAddressType])
	}
	a := NewImportAddress(t,
		row[ColAddressName],
		row[ColAddressPostal],
		row[ColAddressPostalCode],
		row[ColAddressCity],
		row[ColAddressEmail],
		row[ColAddressPhone],
	)
	a.ID = id
	return a, nil
}

// ValueEqual compares every field except the id. A nil address equals only nil.
func (a *Address) ValueEqual(other *Address) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.Type == other.Type &&
		a.Name == other.Name &&
		a.Postal == other.Postal &&
		a.PostalCode == other.PostalCode &&
		a.City == other.City &&
		a.Email == other.Email &&
		a.Phone == other.Phone
}
