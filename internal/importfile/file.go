// Package importfile reads the upstream person export.
//
// The export is an XML document of <person> elements. Person-level data
// (identity key, delete flag, name parts, work address) are flat
// attributes; roles, permissions, former identity keys and additional
// addresses are child elements with their own attributes:
//
//	<persons>
//	  <person key="jsama" initials="JS" firstname="Jo" lastname="Sama"
//	          postaladdress="Postboks 1059 Blindern" postalcode="0316" city="OSLO"
//	          email="jo@example.org" phone="+4722850000" deletable="0">
//	    <role type="SB" orgunit="USIT" journalunit="J-UIO" archivepart="SAK" standard="1"/>
//	    <permission type="AR" orgunit="USIT" operator="bofh"/>
//	    <altid key="josama"/>
//	    <address type="private" postaladdress="Storgata 1" postalcode="0155" city="OSLO"/>
//	  </person>
//	</persons>
//
// ISO-8859-1 and UTF-8 encodings are accepted.
package importfile

import (
	"fmt"
	"io"
	"os"

	"github.com/roach88/casesync/internal/xmltext"
)

// File is a parsed export. Attribute values are kept raw; Resolve turns
// them into model persons.
type File struct {
	Persons []Record `xml:"person"`
}

// Record is one <person> element.
type Record struct {
	Key       string `xml:"key,attr"`
	Deletable string `xml:"deletable,attr"`

	Initials  string `xml:"initials,attr"`
	FullName  string `xml:"fullname,attr"`
	FirstName string `xml:"firstname,attr"`
	LastName  string `xml:"lastname,attr"`
	NameFrom  string `xml:"namefrom,attr"`

	AddressName   string `xml:"addressname,attr"`
	PostalAddress string `xml:"postaladdress,attr"`
	PostalCode    string `xml:"postalcode,attr"`
	City          string `xml:"city,attr"`
	Email         string `xml:"email,attr"`
	Phone         string `xml:"phone,attr"`

	Roles       []RoleRecord       `xml:"role"`
	Permissions []PermissionRecord `xml:"permission"`
	AltIDs      []AltIDRecord      `xml:"altid"`
	Addresses   []AddressRecord    `xml:"address"`
}

// RoleRecord is one <role> element.
type RoleRecord struct {
	Type        string `xml:"type,attr"`
	OrgUnit     string `xml:"orgunit,attr"`
	JournalUnit string `xml:"journalunit,attr"`
	ArchivePart string `xml:"archivepart,attr"`
	Title       string `xml:"title,attr"`
	Standard    string `xml:"standard,attr"`
	From        string `xml:"from,attr"`
	Until       string `xml:"until,attr"`
}

// PermissionRecord is one <permission> element.
type PermissionRecord struct {
	Type        string `xml:"type,attr"`
	OrgUnit     string `xml:"orgunit,attr"`
	Operator    string `xml:"operator,attr"`
	AutoRevoked string `xml:"autorevoked,attr"`
	From        string `xml:"from,attr"`
	Until       string `xml:"until,attr"`
}

// AltIDRecord is one <altid> element.
type AltIDRecord struct {
	Key string `xml:"key,attr"`
}

// AddressRecord is one <address> element for a non-work address type.
type AddressRecord struct {
	Type          string `xml:"type,attr"`
	Name          string `xml:"name,attr"`
	PostalAddress string `xml:"postaladdress,attr"`
	PostalCode    string `xml:"postalcode,attr"`
	City          string `xml:"city,attr"`
	Email         string `xml:"email,attr"`
	Phone         string `xml:"phone,attr"`
}

// Parse decodes an export.
func Parse(r io.Reader) (*File, error) {
	var f File
	if err := xmltext.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	return &f, nil
}

// ParseFile decodes the export at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open import file: %w", err)
	}
	defer fh.Close()
	return Parse(fh)
}
