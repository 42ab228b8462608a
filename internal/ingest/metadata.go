package ingest

import (
	"fmt"
	"time"

	"github.com/sant0-9/chartwise/internal/dataset"
)

// Dataset is a loaded file: its metadata, column catalog and rows
type Dataset struct {
	Metadata Metadata
	Catalog  dataset.Catalog
	Rows     []dataset.Row
}

// Metadata describes the source of a dataset
type Metadata struct {
	Name          string    `json:"name"`
	SourcePath    string    `json:"source_path"`
	SourceFormat  string    `json:"source_format"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	RowCount      int       `json:"row_count"`
	ColumnCount   int       `json:"column_count"`
	LoadedAt      time.Time `json:"loaded_at"`
}

// FileSizeHuman returns human-readable file size
func (m Metadata) FileSizeHuman() string {
	bytes := m.FileSizeBytes
	if bytes < 1024 {
		return fmt.Sprintf("%d B", bytes)
	}
	if bytes < 1024*1024 {
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}
