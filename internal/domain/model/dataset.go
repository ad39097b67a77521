package model

import "time"

// Dataset is the loaded, immutable record set. It is built once per
// process and shared by every render pass.
type Dataset struct {
	records     []Record
	source      string
	loadedAt    time.Time
	skippedRows int
}

// NewDataset copies records so later mutation by the caller cannot leak in.
func NewDataset(source string, records []Record, skippedRows int, loadedAt time.Time) *Dataset {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Dataset{
		records:     cp,
		source:      source,
		loadedAt:    loadedAt,
		skippedRows: skippedRows,
	}
}

// Records returns a copy of the records in source order.
func (d *Dataset) Records() []Record {
	cp := make([]Record, len(d.records))
	copy(cp, d.records)
	return cp
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.records) }

// Source describes where the dataset came from.
func (d *Dataset) Source() string { return d.source }

// LoadedAt is when the dataset finished decoding.
func (d *Dataset) LoadedAt() time.Time { return d.loadedAt }

// SkippedRows counts malformed CSV rows dropped while decoding.
func (d *Dataset) SkippedRows() int { return d.skippedRows }
