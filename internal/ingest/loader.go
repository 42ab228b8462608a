// Package ingest loads tabular files into a column catalog and rows using an
// embedded DuckDB.
package ingest

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"
	"github.com/sirupsen/logrus"

	"github.com/sant0-9/chartwise/internal/dataset"
)

var (
	ErrEmptyFile         = errors.New("file is empty")
	ErrNoRows            = errors.New("file contains no data rows")
	ErrNoColumns         = errors.New("file contains no columns")
	ErrUnsupportedFormat = errors.New("unsupported file type")
)

// readers maps a file extension to the DuckDB table function that reads it
var readers = map[string]string{
	".csv":     "read_csv_auto",
	".tsv":     "read_csv_auto",
	".parquet": "read_parquet",
	".json":    "read_json_auto",
	".ndjson":  "read_json_auto",
}

// Supported reports whether path has a loadable extension
func Supported(path string) bool {
	_, ok := readers[strings.ToLower(filepath.Ext(path))]
	return ok
}

type Loader struct {
	db      *sql.DB
	log     logrus.FieldLogger
	maxRows int
}

type Option func(*Loader)

// WithMaxRows caps how many rows are read. Zero reads everything.
func WithMaxRows(n int) Option {
	return func(l *Loader) { l.maxRows = n }
}

// NewLoader opens an in-memory DuckDB
func NewLoader(ctx context.Context, log logrus.FieldLogger, opts ...Option) (*Loader, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	l := &Loader{db: db, log: log}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

func (l *Loader) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

// Load reads the file at path. Column names are normalized, types mapped to
// the semantic vocabulary and per-column statistics computed.
func (l *Loader) Load(ctx context.Context, path string) (*Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	reader, ok := readers[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, ErrEmptyFile
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s(%s)", reader, quote(abs))
	if l.maxRows > 0 {
		query += fmt.Sprintf(" LIMIT %d", l.maxRows)
	}

	start := time.Now()
	rows, err := l.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	if len(colTypes) == 0 {
		return nil, ErrNoColumns
	}

	names := make([]string, len(colTypes))
	types := make([]dataset.Type, len(colTypes))
	for i, ct := range colTypes {
		names[i] = dataset.NormalizeName(ct.Name())
		types[i] = MapType(ct.DatabaseTypeName())
	}

	var out []dataset.Row
	for rows.Next() {
		vals := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r := make(dataset.Row, len(vals))
		for i, v := range vals {
			r[names[i]] = normalizeValue(v)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if len(out) == 0 {
		return nil, ErrNoRows
	}

	catalog := make(dataset.Catalog, len(names))
	for i, name := range names {
		typ := types[i]
		if typ == dataset.String && looksLikeDates(out, name) {
			typ = dataset.Date
		}
		catalog[i] = dataset.Column{
			Name:         name,
			Type:         typ,
			SampleValues: samples(out, name, sampleCount),
			Stats:        columnStats(out, name, typ),
		}
	}

	ds := &Dataset{
		Metadata: Metadata{
			Name:          strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
			SourcePath:    abs,
			SourceFormat:  strings.TrimPrefix(ext, "."),
			FileSizeBytes: info.Size(),
			RowCount:      len(out),
			ColumnCount:   len(catalog),
			LoadedAt:      time.Now().UTC(),
		},
		Catalog: catalog,
		Rows:    out,
	}

	l.log.WithFields(logrus.Fields{
		"file":    filepath.Base(path),
		"rows":    len(out),
		"columns": len(catalog),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("dataset loaded")

	return ds, nil
}

// MapType maps a DuckDB type name to a semantic column type
func MapType(dbType string) dataset.Type {
	t := strings.ToUpper(dbType)
	switch {
	case t == "BOOLEAN":
		return dataset.Boolean
	case strings.HasPrefix(t, "DATE"), strings.HasPrefix(t, "TIMESTAMP"), t == "TIME":
		return dataset.Date
	case strings.HasPrefix(t, "DECIMAL"),
		strings.HasSuffix(t, "INT"),
		t == "INTEGER", t == "HUGEINT", t == "UHUGEINT",
		t == "FLOAT", t == "DOUBLE", t == "REAL":
		return dataset.Numeric
	}
	return dataset.String
}

// normalizeValue converts driver values into plain JSON-friendly scalars
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case duckdb.Decimal:
		return x.Float64()
	case *big.Int:
		f, _ := new(big.Float).SetInt(x).Float64()
		return f
	case int32:
		return int64(x)
	case int16:
		return int64(x)
	case int8:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	case time.Time:
		return formatTime(x)
	case []byte:
		return string(x)
	case duckdb.UUID:
		return x.String()
	}
	return v
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.RFC3339)
}

// quote renders s as a SQL string literal
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
