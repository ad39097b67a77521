package geo

import (
	"bytes"
	"html/template"
	"strconv"

	geohash "github.com/TomiHiltunen/geohash-golang"

	"github.com/okian/bizmap/internal/domain/model"
)

// markerIDPrecision is the geohash length used in marker IDs (about 5m cells).
const markerIDPrecision = 9

// TooltipColumns are the labelled fields shown when hovering a marker.
var TooltipColumns = []model.Column{
	model.ColCompany, model.ColAddress, model.ColZIP, model.ColContact,
	model.ColEmployees, model.ColSales, model.ColSIC, model.ColCredit, model.ColFleet,
}

var tooltipTmpl = template.Must(template.New("tooltip").Parse(
	`{{range .}}<b>{{.Label}}:</b> {{.Value}}<br>{{end}}`,
))

type tooltipLine struct {
	Label string
	Value string
}

// Marker is one point on the map.
type Marker struct {
	ID      string        `json:"id"`
	Row     int           `json:"row"`
	Lat     float64       `json:"lat"`
	Lon     float64       `json:"lon"`
	Tooltip template.HTML `json:"tooltip"`
}

// Markers builds one marker per record with coordinates, in input order.
func Markers(records []model.Record) ([]Marker, error) {
	out := make([]Marker, 0, len(records))
	for _, r := range records {
		p, ok := PointOf(r)
		if !ok {
			continue
		}
		tip, err := Tooltip(r)
		if err != nil {
			return nil, err
		}
		out = append(out, Marker{
			ID:      MarkerID(r.Row, p),
			Row:     r.Row,
			Lat:     p.Lat,
			Lon:     p.Lon,
			Tooltip: tip,
		})
	}
	return out, nil
}

// MarkerID combines the cell geohash with the row index, so IDs are stable
// across reloads of the same file and unique within it.
func MarkerID(row int, p Point) string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lon, markerIDPrecision) + "-" + strconv.Itoa(row)
}

// Tooltip renders the hover text for r with every value HTML-escaped.
func Tooltip(r model.Record) (template.HTML, error) {
	lines := make([]tooltipLine, 0, len(TooltipColumns))
	for _, c := range TooltipColumns {
		lines = append(lines, tooltipLine{Label: string(c), Value: r.Value(c)})
	}
	var buf bytes.Buffer
	if err := tooltipTmpl.Execute(&buf, lines); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil //nolint:gosec // produced by html/template
}
