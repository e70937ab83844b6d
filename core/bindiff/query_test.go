package bindiff

import (
	"fmt"
	"testing"

	"github.com/FocuswithJustin/diffsig/core/errors"
)

// fakeRows drives a matchCursor without a database.
type fakeRows struct {
	rows    [][2]any
	pos     int
	err     error
	scanErr error
	closed  bool
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.scanErr != nil {
		return f.scanErr
	}
	row := f.rows[f.pos-1]
	*dest[0].(*any) = row[0]
	*dest[1].(*any) = row[1]
	return nil
}

func (f *fakeRows) Err() error   { return f.err }
func (f *fakeRows) Close() error { f.closed = true; return nil }

func testCursor(rows *fakeRows) *matchCursor {
	return &matchCursor{rows: rows, path: "test.BinDiff", table: "function"}
}

func TestMatchCursorNext(t *testing.T) {
	cur := testCursor(&fakeRows{rows: [][2]any{
		{int64(0x1000), int64(0x2000)},
		{int64(-1), int64(0x2010)}, // 0xFFFFFFFFFFFFFFFF two's-complement
	}})

	pair, ok, err := cur.next()
	if err != nil || !ok {
		t.Fatalf("next() = %v, %v, %v", pair, ok, err)
	}
	if pair != (AddressPair{Primary: 0x1000, Secondary: 0x2000}) {
		t.Errorf("pair = %v, unexpected", pair)
	}

	pair, ok, err = cur.next()
	if err != nil || !ok {
		t.Fatalf("next() = %v, %v, %v", pair, ok, err)
	}
	if pair.Primary != Address(0xFFFFFFFFFFFFFFFF) {
		t.Errorf("Primary = %s, want all-ones address", pair.Primary)
	}

	if _, ok, err := cur.next(); ok || err != nil {
		t.Errorf("next() past end = %v, %v, want exhausted", ok, err)
	}
}

func TestMatchCursorNonIntegerAddress(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"text", "0x1000"},
		{"real", 3.14},
		{"blob", []byte{0x10}},
		{"null", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cur := testCursor(&fakeRows{rows: [][2]any{{tt.value, int64(0x2000)}}})
			_, _, err := cur.next()
			if !errors.Is(err, errors.ErrSchema) {
				t.Fatalf("err = %v, want ErrSchema", err)
			}
			var schemaErr *errors.SchemaError
			if !errors.As(err, &schemaErr) || schemaErr.Table != "function" {
				t.Errorf("SchemaError does not name the table: %v", err)
			}
		})
	}
}

func TestMatchCursorIterationError(t *testing.T) {
	cur := testCursor(&fakeRows{err: fmt.Errorf("disk gone")})
	_, ok, err := cur.next()
	if ok {
		t.Fatal("next() = ok on failed iteration")
	}
	if !errors.Is(err, errors.ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want IOError", err)
	}
}

func TestMatchCursorScanError(t *testing.T) {
	cur := testCursor(&fakeRows{
		rows:    [][2]any{{int64(1), int64(2)}},
		scanErr: fmt.Errorf("scan blew up"),
	})
	_, _, err := cur.next()
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("err = %v, want IOError", err)
	}
}

func TestMatchCursorClose(t *testing.T) {
	rows := &fakeRows{}
	cur := testCursor(rows)
	if err := cur.close(); err != nil {
		t.Fatalf("close() = %v", err)
	}
	if !rows.closed {
		t.Error("close() did not close the underlying rows")
	}
}
