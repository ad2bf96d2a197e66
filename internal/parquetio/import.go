package parquetio

import (
	"context"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet/file"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"
)

// ReadFile reads a Parquet file written by WriteDaily back into one Arrow
// record. It returns the table's first record batch only: that holds every
// row when each column reads back as a single chunk (as for a file written
// by WriteDaily in one row group); rows in later chunks are not returned.
func ReadFile(path string) (arrow.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parquetio: open %s: %w", path, err)
	}
	defer f.Close()

	pf, err := file.NewParquetReader(f)
	if err != nil {
		return nil, fmt.Errorf("parquetio: parse %s: %w", path, err)
	}

	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, fmt.Errorf("parquetio: arrow reader: %w", err)
	}

	table, err := reader.ReadTable(context.Background())
	if err != nil {
		return nil, fmt.Errorf("parquetio: read table: %w", err)
	}
	defer table.Release()

	tr := array.NewTableReader(table, table.NumRows())
	defer tr.Release()

	if !tr.Next() {
		return nil, fmt.Errorf("parquetio: %s has no rows", path)
	}
	rec := tr.Record()
	rec.Retain()
	return rec, nil
}

// RecordToValues unpacks rec row-major, in column order, for handing to
// events.ScanInto.
func RecordToValues(rec arrow.Record) ([][]any, error) {
	rows := make([][]any, rec.NumRows())
	for r := range rows {
		rows[r] = make([]any, rec.NumCols())
	}

	for c := 0; c < int(rec.NumCols()); c++ {
		col := rec.Column(c)
		for r := 0; r < int(rec.NumRows()); r++ {
			v, err := scalarAt(col, r)
			if err != nil {
				return nil, err
			}
			rows[r][c] = v
		}
	}
	return rows, nil
}

func scalarAt(col arrow.Array, row int) (any, error) {
	switch a := col.(type) {
	case *array.String:
		return a.Value(row), nil
	case *array.Uint8:
		return a.Value(row), nil
	case *array.Uint32:
		return a.Value(row), nil
	case *array.Uint64:
		return a.Value(row), nil
	default:
		return nil, fmt.Errorf("parquetio: unsupported column type %T", col)
	}
}
