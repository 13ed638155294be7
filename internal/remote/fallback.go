package remote

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// orderKeys are the primary-key columns of the known row tags. Every
// fallback query orders by one so that the result is deterministic.
var orderKeys = map[string]string{
	OrgUnits.RowTag:       "AI_ID",
	RoleTypes.RowTag:      "RO_ID",
	Persons.RowTag:        "PE_ID",
	Names.RowTag:          "PN_ID",
	AddressLinks.RowTag:   "PA_PEID_PE, PA_ADRID_AK",
	AddressDetails.RowTag: "AK_ADRID",
	Roles.RowTag:          "PR_ID",
	Permissions.RowTag:    "PK_ID",
}

// SQLReader reads datasets straight from a replica of the remote data store.
// Each row tag is a table of the same name.
type SQLReader struct {
	db *sql.DB
}

var _ RowReader = (*SQLReader)(nil)

// OpenSQLReader opens a fallback store. The driver must be registered by
// the caller.
func OpenSQLReader(driver, dsn string) (*SQLReader, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open fallback store: %w", err)
	}
	return &SQLReader{db: db}, nil
}

// NewSQLReader wraps an open database.
func NewSQLReader(db *sql.DB) *SQLReader {
	return &SQLReader{db: db}
}

// Close closes the underlying database.
func (r *SQLReader) Close() error {
	return r.db.Close()
}

// ReadRows implements RowReader. NULL columns read as "". Column names are
// upper-cased to match the gateway's row format.
func (r *SQLReader) ReadRows(ctx context.Context, criteria, rowTag string) ([]Row, error) {
	query, err := selectAll(rowTag)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", rowTag, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns %s: %w", rowTag, err)
	}
	for i, c := range cols {
		cols[i] = strings.ToUpper(c)
	}

	var out []Row
	values := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range values {
		dest[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", rowTag, err)
		}
		row := make(Row, len(cols))
		for i, c := range cols {
			if values[i].Valid {
				row[c] = values[i].String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", rowTag, err)
	}
	return out, nil
}

// selectAll builds the query for one table. The table name cannot be bound
// as a parameter, so it is restricted to identifier characters.
func selectAll(table string) (string, error) {
	if !isIdentifier(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	order, ok := orderKeys[table]
	if !ok {
		order = "1"
	}
	return fmt.Sprintf("SELECT * FROM %s ORDER BY %s", table, order), nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
