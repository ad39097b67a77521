package viewcheck

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/model"
	"github.com/okian/bizmap/internal/domain/ordering"
)

// Check names.
const (
	CheckOptionOrder  = "option_order"
	CheckCoordinates  = "coordinates"
	CheckZIP          = "zip_format"
	CheckSelection    = "selection"
	CheckConsistency  = "consistency"
	CheckCenter       = "center"
	CheckDeterminism  = "determinism"
	CheckRecordsMatch = "records_match"
)

// VerifyControls checks that every ordinal control lists its options in
// reference order with unrecognized values after all recognized ones, and
// that ZIP options ascend.
func VerifyControls(controls []service.FilterControl, o *ordering.Orderer) []Violation {
	var out []Violation
	for _, c := range controls {
		if c.Column == model.ColZIP && o.Reference(c.Column) == nil {
			if !sort.StringsAreSorted(c.Options) {
				out = append(out, Violation{Check: CheckOptionOrder, Message: "ZIP options are not ascending"})
			}
			continue
		}
		ref := o.Reference(c.Column)
		if ref == nil {
			continue
		}
		pos := make(map[string]int, len(ref))
		for i, v := range ref {
			pos[v] = i
		}
		last, sawUnknown := -1, false
		for _, v := range c.Options {
			i, known := pos[v]
			if !known {
				sawUnknown = true
				continue
			}
			if sawUnknown {
				out = append(out, Violation{Check: CheckOptionOrder,
					Message: fmt.Sprintf("%s: %q listed after an unrecognized value", c.Column, v)})
				break
			}
			if i < last {
				out = append(out, Violation{Check: CheckOptionOrder,
					Message: fmt.Sprintf("%s: %q out of reference order", c.Column, v)})
				break
			}
			last = i
		}
	}
	return out
}

// VerifyRecords checks the records endpoint against the selection.
func VerifyRecords(tc Case, recs *RecordsResponse) []Violation {
	var out []Violation
	add := func(check, format string, args ...any) {
		out = append(out, Violation{CaseID: tc.ID, Check: check, Message: fmt.Sprintf(format, args...)})
	}
	if recs.Count != len(recs.Records) {
		add(CheckConsistency, "count %d but %d records", recs.Count, len(recs.Records))
	}
	for _, r := range recs.Records {
		if !r.HasCoordinates() {
			add(CheckCoordinates, "row %d has no coordinates", r.Row)
		}
		if strings.Contains(r.ZIP, ",") {
			add(CheckZIP, "row %d ZIP %q contains a separator", r.Row, r.ZIP)
		}
		if !tc.Selection.Matches(r) {
			add(CheckSelection, "row %d does not satisfy the selection", r.Row)
		}
	}
	return out
}

// VerifyView checks a render pass against the records of the same selection.
func VerifyView(tc Case, view *service.View, recs *RecordsResponse) []Violation {
	var out []Violation
	add := func(check, format string, args ...any) {
		out = append(out, Violation{CaseID: tc.ID, Check: check, Message: fmt.Sprintf(format, args...)})
	}

	n := len(recs.Records)
	if view.Matched != n {
		add(CheckRecordsMatch, "view matched %d, records returned %d", view.Matched, n)
	}
	if len(view.Map.Markers) != view.Matched {
		add(CheckConsistency, "%d markers for %d matched rows", len(view.Map.Markers), view.Matched)
	}
	if len(view.Table.Rows) != view.Matched {
		add(CheckConsistency, "%d table rows for %d matched rows", len(view.Table.Rows), view.Matched)
	}
	if view.Matched > view.Total {
		add(CheckConsistency, "matched %d exceeds total %d", view.Matched, view.Total)
	}
	for i, m := range view.Map.Markers {
		if i < n && m.Row != recs.Records[i].Row {
			add(CheckRecordsMatch, "marker %d is row %d, records has row %d", i, m.Row, recs.Records[i].Row)
			break
		}
	}

	if n == 0 {
		if !view.Map.Fallback {
			add(CheckCenter, "empty view without fallback center")
		}
		return out
	}
	if view.Map.Fallback {
		add(CheckCenter, "fallback center used for %d rows", n)
	}
	var lat, lon float64
	for _, r := range recs.Records {
		if r.HasCoordinates() {
			lat += *r.Latitude
			lon += *r.Longitude
		}
	}
	lat /= float64(n)
	lon /= float64(n)
	if math.Abs(view.Map.Center.Lat-lat) > coordinateTolerance || math.Abs(view.Map.Center.Lon-lon) > coordinateTolerance {
		add(CheckCenter, "center %.6f,%.6f is not the centroid %.6f,%.6f",
			view.Map.Center.Lat, view.Map.Center.Lon, lat, lon)
	}
	return out
}

// VerifySameView checks that two render passes of one selection agree on
// everything except their identity and timestamp.
func VerifySameView(tc Case, a, b *service.View) []Violation {
	if reflect.DeepEqual(a.Controls, b.Controls) &&
		reflect.DeepEqual(a.Map, b.Map) &&
		reflect.DeepEqual(a.Table, b.Table) &&
		a.Total == b.Total && a.Matched == b.Matched {
		return nil
	}
	return []Violation{{CaseID: tc.ID, Check: CheckDeterminism, Message: "repeated render pass differs"}}
}
