// store.go implements opening and schema validation of diff-result
// stores. The store is a plain SQLite database; the tables below are the
// subset of the producer's schema this layer depends on.
package bindiff

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/FocuswithJustin/diffsig/core/errors"
	"github.com/FocuswithJustin/diffsig/core/sqlite"
)

// metadataTable holds one row per compared binary.
const metadataTable = "file"

// requiredColumns lists, per table, the columns this layer reads. Tables
// may carry more columns (similarity scores, algorithm tags); extras are
// ignored.
var requiredColumns = map[string][]string{
	"function":    {"address1", "address2"},
	"basicblock":  {"address1", "address2"},
	"instruction": {"address1", "address2"},
	metadataTable: {"id", "filename", "exefilename", "hash"},
}

// store is a read-only handle to one diff-result file. It never crosses
// the ParseDiffResult boundary.
type store struct {
	db   *sql.DB
	path string
}

// openStore opens the file at path read-only and validates its schema.
// Failure modes are kept distinct: NotFoundError when the path does not
// resolve to a file, IOError when the file exists but cannot be read, and
// SchemaError when it reads fine but is not a diff-result store.
func openStore(path string) (*store, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound(path, err)
		}
		return nil, errors.NewIO("stat", path, err)
	}
	if info.IsDir() {
		return nil, errors.NewNotFound(path, fmt.Errorf("path is a directory"))
	}

	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}

	s := &store{db: db, path: path}
	if err := s.validateSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// close releases the underlying database handle. Safe to call twice.
func (s *store) close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

// validateSchema checks that every required table and column exists.
// The first query also forces SQLite to actually read the file, which is
// where a non-database file surfaces.
func (s *store) validateSchema() error {
	for table, columns := range requiredColumns {
		var count int
		err := s.db.QueryRow(
			"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&count)
		if err != nil {
			if sqlite.IsNotADatabase(err) {
				return &errors.SchemaError{
					Path:    s.path,
					Message: "file is not a diff-result store",
					Err:     err,
				}
			}
			return errors.NewIO("read", s.path, err)
		}
		if count == 0 {
			return errors.NewSchema(s.path, table, "required table is missing")
		}
		if err := s.checkColumns(table, columns); err != nil {
			return err
		}
	}
	return nil
}

// checkColumns verifies that table declares at least the named columns.
func (s *store) checkColumns(table string, columns []string) error {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%q)", table))
	if err != nil {
		return errors.NewIO("read", s.path, err)
	}
	defer rows.Close()

	present := make(map[string]bool)
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return errors.NewIO("read", s.path, err)
		}
		present[name] = true
	}
	if err := rows.Err(); err != nil {
		return errors.NewIO("read", s.path, err)
	}

	for _, column := range columns {
		if !present[column] {
			return errors.NewSchema(s.path, table, fmt.Sprintf("missing column %s", column))
		}
	}
	return nil
}
