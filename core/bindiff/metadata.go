package bindiff

import (
	"database/sql"
	"fmt"

	"github.com/FocuswithJustin/diffsig/core/errors"
)

// readMetadata reads the two binary metadata records. Canonical order is
// the metadata table's rowid: the first row describes the primary binary,
// the second the secondary. Role assignment is the producer's convention;
// the caller has no say in it.
func (s *store) readMetadata() (*MetadataPair, error) {
	rows, err := s.db.Query(
		fmt.Sprintf("SELECT filename, exefilename, hash FROM %s ORDER BY id", metadataTable))
	if err != nil {
		return nil, errors.NewIO("query", s.path, err)
	}
	defer rows.Close()

	var records []BinaryMetadata
	for rows.Next() {
		var name, originalName, hash sql.NullString
		if err := rows.Scan(&name, &originalName, &hash); err != nil {
			return nil, errors.NewIO("read", s.path, err)
		}
		records = append(records, BinaryMetadata{
			Name:         name.String,
			OriginalName: originalName.String,
			ContentHash:  hash.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewIO("read", s.path, err)
	}

	if len(records) != 2 {
		return nil, errors.NewSchema(s.path, metadataTable,
			fmt.Sprintf("expected 2 metadata rows, got %d", len(records)))
	}
	return &MetadataPair{Primary: records[0], Secondary: records[1]}, nil
}
