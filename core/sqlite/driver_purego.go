//go:build !cgo_sqlite

package sqlite

import (
	"errors"

	sqlite3 "modernc.org/sqlite"
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)

// SQLITE_NOTADB: the file exists and is readable but is not a SQLite
// database.
const codeNotADB = 26

func driverIsNotADatabase(err error) bool {
	var se *sqlite3.Error
	return errors.As(err, &se) && se.Code() == codeNotADB
}
