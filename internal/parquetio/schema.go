// Package parquetio implements the Parquet export (C7) and import (C8)
// components: one file per (table, day), Snappy-compressed, schema
// mirroring the event row's field names and native widths.
package parquetio

import (
	"fmt"
	"reflect"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"

	"github.com/pumpfun-analytics/ingestor/internal/events"
)

// BuildSchema derives an Arrow schema from a row's Columns() and the Go
// types returned by the first row's Values().
func BuildSchema(cols []string, sample []any) (*arrow.Schema, error) {
	fields := make([]arrow.Field, len(cols))
	for i, v := range sample {
		dt, err := arrowType(reflect.TypeOf(v).Kind())
		if err != nil {
			return nil, fmt.Errorf("parquetio: column %s: %w", cols[i], err)
		}
		fields[i] = arrow.Field{Name: cols[i], Type: dt}
	}
	return arrow.NewSchema(fields, nil), nil
}

func arrowType(k reflect.Kind) (arrow.DataType, error) {
	switch k {
	case reflect.String:
		return arrow.BinaryTypes.String, nil
	case reflect.Uint8:
		return arrow.PrimitiveTypes.Uint8, nil
	case reflect.Uint32:
		return arrow.PrimitiveTypes.Uint32, nil
	case reflect.Uint64:
		return arrow.PrimitiveTypes.Uint64, nil
	default:
		return nil, fmt.Errorf("unsupported field kind %s", k)
	}
}

// BuildRecord converts a homogeneous slice of rows (same concrete type)
// into a single, null-free Arrow record batch.
func BuildRecord(mem memory.Allocator, rows []events.Row) (arrow.Record, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("parquetio: cannot build a record from zero rows")
	}

	cols := rows[0].Columns()
	schema, err := BuildSchema(cols, rows[0].Values())
	if err != nil {
		return nil, err
	}

	builders := make([]array.Builder, len(cols))
	for i, f := range schema.Fields() {
		builders[i] = array.NewBuilder(mem, f.Type)
	}
	defer func() {
		for _, b := range builders {
			b.Release()
		}
	}()

	for _, row := range rows {
		vals := row.Values()
		for i, v := range vals {
			if err := appendValue(builders[i], v); err != nil {
				return nil, err
			}
		}
	}

	arrays := make([]arrow.Array, len(builders))
	for i, b := range builders {
		arrays[i] = b.NewArray()
	}
	defer func() {
		for _, a := range arrays {
			a.Release()
		}
	}()

	return array.NewRecord(schema, arrays, int64(len(rows))), nil
}

func appendValue(b array.Builder, v any) error {
	switch bb := b.(type) {
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("parquetio: expected string, got %T", v)
		}
		bb.Append(s)
	case *array.Uint8Builder:
		n, ok := v.(uint8)
		if !ok {
			return fmt.Errorf("parquetio: expected uint8, got %T", v)
		}
		bb.Append(n)
	case *array.Uint32Builder:
		n, ok := v.(uint32)
		if !ok {
			return fmt.Errorf("parquetio: expected uint32, got %T", v)
		}
		bb.Append(n)
	case *array.Uint64Builder:
		n, ok := v.(uint64)
		if !ok {
			return fmt.Errorf("parquetio: expected uint64, got %T", v)
		}
		bb.Append(n)
	default:
		return fmt.Errorf("parquetio: unsupported builder %T", b)
	}
	return nil
}
