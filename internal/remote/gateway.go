// Package remote talks to the case-management system's record store.
//
// Reads are expressed as (criteria, row tag) pairs: the criteria names a
// dataset and the row tag names the XML element each result row is wrapped
// in. Writes are whole update documents (see package updatedoc). Everything
// the reconciliation engine needs from the remote side goes through the
// Gateway interface, so tests and dry runs can swap the transport.
package remote

import "context"

// Row is one result row keyed by column name. Absent columns read as "".
type Row = map[string]string

// Gateway reads row sets from and submits update documents to the remote
// system.
type Gateway interface {
	// FetchRows returns every row of a dataset. It fails with a
	// *TooManyRowsError when the result was truncated and could not be
	// completed by other means.
	FetchRows(ctx context.Context, criteria, rowTag string) ([]Row, error)

	// SubmitUpdate sends one update document. A positive result is the id
	// assigned to the first created row (or a plain success marker); zero or
	// less means the remote system refused the document without raising a
	// fault.
	SubmitUpdate(ctx context.Context, document string) (int, error)
}

// RowReader is a read-only source of datasets, used as a fallback when the
// gateway truncates a result.
type RowReader interface {
	ReadRows(ctx context.Context, criteria, rowTag string) ([]Row, error)
}

// Dataset names a remote dataset and its row tag.
type Dataset struct {
	Criteria string
	RowTag   string
}

// The datasets the sync reads.
var (
	OrgUnits       = Dataset{Criteria: "AdminDel", RowTag: "ADMINDEL"}
	RoleTypes      = Dataset{Criteria: "Rolle", RowTag: "ROLLE"}
	Persons        = Dataset{Criteria: "Person", RowTag: "PERSON"}
	Names          = Dataset{Criteria: "PerNavn", RowTag: "PERNAVN"}
	AddressLinks   = Dataset{Criteria: "PerAdr", RowTag: "PERADR"}
	AddressDetails = Dataset{Criteria: "AdresseKp", RowTag: "ADRESSEKP"}
	Roles          = Dataset{Criteria: "PerRolle", RowTag: "PERROLLE"}
	Permissions    = Dataset{Criteria: "PerKlar", RowTag: "PERKLAR"}
)

// Fetch reads a whole dataset through gw.
func Fetch(ctx context.Context, gw Gateway, ds Dataset) ([]Row, error) {
	return gw.FetchRows(ctx, ds.Criteria, ds.RowTag)
}

func (d Dataset) String() string {
	return d.Criteria + "/" + d.RowTag
}
