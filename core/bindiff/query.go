// query.go implements the per-granularity row cursor. Cursors are lazy,
// finite, single-pass and not restartable; reading a granularity again
// requires a fresh cursor. Row order is whatever SQLite yields natively.
package bindiff

import (
	"fmt"

	"github.com/FocuswithJustin/diffsig/core/errors"
)

// matchCursor streams (address1, address2) rows of one match table.
type matchCursor struct {
	rows  rowScanner
	path  string
	table string
}

// rowScanner is the slice of *sql.Rows the cursor needs. Narrowed to an
// interface so cursor behavior is testable without a live database.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// queryMatches issues the single query for one granularity's match table.
func (s *store) queryMatches(g Granularity) (*matchCursor, error) {
	rows, err := s.db.Query(fmt.Sprintf("SELECT address1, address2 FROM %s", g.table()))
	if err != nil {
		return nil, errors.NewIO("query", s.path, err)
	}
	return &matchCursor{rows: rows, path: s.path, table: g.table()}, nil
}

// next advances the cursor. The second return is false when the cursor is
// exhausted; a non-nil error means the cursor is dead and must not be
// advanced again.
func (c *matchCursor) next() (AddressPair, bool, error) {
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return AddressPair{}, false, errors.NewIO("read", c.path, err)
		}
		return AddressPair{}, false, nil
	}

	var primary, secondary any
	if err := c.rows.Scan(&primary, &secondary); err != nil {
		return AddressPair{}, false, errors.NewIO("read", c.path, err)
	}

	p, err := c.toAddress(primary, "address1")
	if err != nil {
		return AddressPair{}, false, err
	}
	q, err := c.toAddress(secondary, "address2")
	if err != nil {
		return AddressPair{}, false, err
	}
	return AddressPair{Primary: p, Secondary: q}, true, nil
}

// toAddress validates one raw stored value against the 64-bit address
// width. SQLite integers are signed 64-bit; the producer stores addresses
// in the upper half of the range two's-complement encoded, so int64 to
// Address is a reinterpretation, not a sign extension. Any other storage
// class cannot hold a valid address and is a schema violation.
func (c *matchCursor) toAddress(value any, column string) (Address, error) {
	switch v := value.(type) {
	case int64:
		return Address(v), nil
	case nil:
		return 0, errors.NewSchema(c.path, c.table, fmt.Sprintf("NULL address in column %s", column))
	default:
		return 0, errors.NewSchema(c.path, c.table,
			fmt.Sprintf("column %s holds %T, want 64-bit integer address", column, value))
	}
}

func (c *matchCursor) close() error {
	return c.rows.Close()
}
