package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/internal/domain/geo"
	"github.com/okian/bizmap/internal/domain/model"
)

// Warning kinds.
const (
	WarningUnknownCategory = "unknown_category"
	WarningUnmatchedValue  = "unmatched_value"
	WarningIgnoredColumn   = "ignored_column"
)

// FilterControl is one sidebar multi-select.
type FilterControl struct {
	Column   model.Column `json:"column"`
	Label    string       `json:"label"`
	Options  []string     `json:"options"`
	Selected []string     `json:"selected"`
	Ordinal  bool         `json:"ordinal"`
}

// Warning is a non-fatal problem surfaced next to the view.
type Warning struct {
	Kind       string       `json:"kind"`
	Column     model.Column `json:"column,omitempty"`
	Value      string       `json:"value,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
	Message    string       `json:"message"`
}

// Table is the tabular rendering of the filtered view. Cells are
// display strings: ZIP as written, coordinates in shortest decimal form.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// View is the full output of one render pass.
type View struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Controls    []FilterControl  `json:"controls"`
	Selection   filter.Selection `json:"selection"`
	Map         geo.MapView      `json:"map"`
	Table       Table            `json:"table"`
	Total       int              `json:"total"`
	Matched     int              `json:"matched"`
	Warnings    []Warning        `json:"warnings"`
	RenderedAt  time.Time        `json:"rendered_at"`
}

// NewTable renders records with every dataset column.
func NewTable(records []model.Record) Table {
	cols := make([]string, len(model.AllColumns))
	for i, c := range model.AllColumns {
		cols[i] = string(c)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(model.AllColumns))
		for i, c := range model.AllColumns {
			switch c {
			case model.ColLat:
				row[i] = formatCoordinate(r.Latitude)
			case model.ColLon:
				row[i] = formatCoordinate(r.Longitude)
			default:
				row[i] = r.Value(c)
			}
		}
		rows = append(rows, row)
	}
	return Table{Columns: cols, Rows: rows}
}

func formatCoordinate(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// IgnoredColumnWarnings reports query keys that name no filter control.
func IgnoredColumnWarnings(keys []string) []Warning {
	warnings := make([]Warning, 0, len(keys))
	for _, k := range keys {
		warnings = append(warnings, Warning{
			Kind:    WarningIgnoredColumn,
			Value:   k,
			Message: fmt.Sprintf("%q is not a filter and was ignored", k),
		})
	}
	return warnings
}
