package parquetio

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"

	"github.com/pumpfun-analytics/ingestor/internal/events"
)

// Path returns the file path for one (root, table, date) unit:
// `<root>/<table>/<table>_<YYYY-MM-DD>.parquet`.
func Path(root, table string, date time.Time) string {
	name := fmt.Sprintf("%s_%s.parquet", table, date.Format("2006-01-02"))
	return filepath.Join(root, table, name)
}

// WriteDaily writes rows (already filtered to one day) to the canonical
// path under root for table/date, creating the table directory if
// necessary, with Snappy compression. Returns the path written.
func WriteDaily(root, table string, date time.Time, rows []events.Row) (string, error) {
	path := Path(root, table, date)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("parquetio: mkdir: %w", err)
	}

	mem := memory.NewGoAllocator()
	rec, err := BuildRecord(mem, rows)
	if err != nil {
		return "", err
	}
	defer rec.Release()

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("parquetio: create %s: %w", path, err)
	}
	defer f.Close()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	writer, err := pqarrow.NewFileWriter(rec.Schema(), f, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return "", fmt.Errorf("parquetio: new writer: %w", err)
	}
	defer writer.Close()

	if err := writer.Write(rec); err != nil {
		return "", fmt.Errorf("parquetio: write record: %w", err)
	}

	return path, nil
}
