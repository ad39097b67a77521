package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/okian/bizmap/internal/domain/model"
)

const utf8BOM = "\ufeff"

// Decode parses the business CSV. Header names are matched to columns
// case-insensitively and extra columns are ignored. Rows whose field count
// differs from the header are skipped and counted rather than failing the
// whole load.
func Decode(r io.Reader) ([]model.Record, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, fmt.Errorf("%w: empty file", ErrMalformedCSV)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: header: %v", ErrMalformedCSV, err)
	}

	index, err := headerIndex(header)
	if err != nil {
		return nil, 0, err
	}

	var (
		records []model.Record
		skipped int
		row     int
	)
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrMalformedCSV, err)
		}
		row++
		if len(fields) != len(header) {
			skipped++
			continue
		}
		records = append(records, decodeRow(row-1, fields, index))
	}

	return records, skipped, nil
}

func headerIndex(header []string) (map[model.Column]int, error) {
	index := make(map[model.Column]int, len(model.AllColumns))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		c, ok := model.ParseColumn(name)
		if !ok {
			continue
		}
		if _, dup := index[c]; !dup {
			index[c] = i
		}
	}

	var missing []string
	for _, c := range model.AllColumns {
		if _, ok := index[c]; !ok {
			missing = append(missing, string(c))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return index, nil
}

func decodeRow(row int, fields []string, index map[model.Column]int) model.Record {
	rec := model.Record{Row: row}
	for _, c := range model.AllColumns {
		v := strings.TrimSpace(fields[index[c]])
		switch c {
		case model.ColLat:
			rec.Latitude = parseCoordinate(v, 90)
		case model.ColLon:
			rec.Longitude = parseCoordinate(v, 180)
		case model.ColZIP:
			rec.ZIP = NormalizeZIP(v)
		default:
			rec.Set(c, v)
		}
	}
	return rec
}

// NormalizeZIP removes thousands separators and spaces, and the ".0" left
// behind when a spreadsheet stored the code as a float.
func NormalizeZIP(v string) string {
	v = strings.NewReplacer(",", "", " ", "").Replace(v)
	return strings.TrimSuffix(v, ".0")
}

// parseCoordinate returns nil for blank, non-numeric, non-finite or
// out-of-range values.
func parseCoordinate(v string, limit float64) *float64 {
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > limit {
		return nil
	}
	return &f
}
