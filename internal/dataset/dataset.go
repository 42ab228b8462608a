package dataset

import "strings"

// Type is the semantic type of a column
type Type string

const (
	Numeric Type = "numeric"
	String  Type = "string"
	Date    Type = "date"
	Boolean Type = "boolean"
)

// Column describes one column of the active dataset
type Column struct {
	Name         string       `json:"name" yaml:"name"`
	Type         Type         `json:"type" yaml:"type"`
	SampleValues []string     `json:"sample_values,omitempty" yaml:"sample_values,omitempty"`
	Stats        *ColumnStats `json:"statistics,omitempty" yaml:"statistics,omitempty"`
}

// ColumnStats holds per-column statistics. Only the fields relevant to the
// column's type are set.
type ColumnStats struct {
	NullCount      int     `json:"null_count"`
	NullPercentage float64 `json:"null_percentage"`
	UniqueCount    int     `json:"unique_count"`

	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Mean   *float64 `json:"mean,omitempty"`
	Median *float64 `json:"median,omitempty"`
	Std    *float64 `json:"std,omitempty"`

	MinDate string `json:"min_date,omitempty"`
	MaxDate string `json:"max_date,omitempty"`

	MinLength *int     `json:"min_length,omitempty"`
	MaxLength *int     `json:"max_length,omitempty"`
	AvgLength *float64 `json:"avg_length,omitempty"`
}

// Row is one record of the dataset keyed by column name. It is an alias so
// row slices pass straight into the stats helpers.
type Row = map[string]any

// Catalog is the ordered column metadata of a dataset. Order matters: every
// default column choice picks the first match in catalog order.
type Catalog []Column

// Buckets partitions column names by semantic type, preserving catalog order
type Buckets struct {
	Numeric []string
	String  []string
	Date    []string
	Boolean []string
}

// Buckets recomputes the type partition of the catalog.
func (c Catalog) Buckets() Buckets {
	var b Buckets
	for _, col := range c {
		switch col.Type {
		case Numeric:
			b.Numeric = append(b.Numeric, col.Name)
		case String:
			b.String = append(b.String, col.Name)
		case Date:
			b.Date = append(b.Date, col.Name)
		case Boolean:
			b.Boolean = append(b.Boolean, col.Name)
		}
	}
	return b
}

// Names returns the column names in catalog order
func (c Catalog) Names() []string {
	names := make([]string, len(c))
	for i, col := range c {
		names[i] = col.Name
	}
	return names
}

// Lookup finds a column by exact name
func (c Catalog) Lookup(name string) (Column, bool) {
	for _, col := range c {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// NormalizeName applies the column naming rule used at ingestion:
// trimmed, spaces to underscores, lowercased.
func NormalizeName(name string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), " ", "_"))
}

// First returns the first element of names, or "".
func First(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[0]
}
