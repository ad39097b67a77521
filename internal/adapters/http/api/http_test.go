package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/okian/bizmap/internal/adapters/http/api"
	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// mockDeps records the selections it was asked for.
type mockDeps struct {
	err      error
	lastSel  filter.Selection
	controls []service.FilterControl
	records  []model.Record
}

func (m *mockDeps) Filters(context.Context) ([]service.FilterControl, []service.Warning, error) {
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.controls, nil, nil
}

func (m *mockDeps) Render(_ context.Context, sel filter.Selection) (*service.View, error) {
	m.lastSel = sel
	if m.err != nil {
		return nil, m.err
	}
	return &service.View{ID: "view-1", Selection: sel, Matched: len(m.records)}, nil
}

func (m *mockDeps) Records(_ context.Context, sel filter.Selection) ([]model.Record, error) {
	m.lastSel = sel
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newRouter(deps *mockDeps) http.Handler {
	r := chi.NewRouter()
	api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"renders": 3}}).Register(r)
	return r
}

func do(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDeps{
			controls: []service.FilterControl{{Column: model.ColCredit, Label: "Filter by CREDIT", Options: []string{"I", "A"}}},
			records:  []model.Record{{Row: 0, Company: "Acme", Latitude: model.Float(43), Longitude: model.Float(-89)}},
		}
		h := newRouter(deps)

		Convey("Then the health endpoint should serve metrics", func() {
			w := do(h, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "bizmap_view_")
		})

		Convey("And the stats endpoint should return JSON", func() {
			w := do(h, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats["renders"], ShouldEqual, float64(3))
		})

		Convey("And the dashboard should be served", func() {
			w := do(h, "/dashboard")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "bizmap")
		})

		Convey("And unknown routes should 404", func() {
			So(do(h, "/leaderboard").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestFilters(t *testing.T) {
	Convey("Given GET /api/filters", t, func() {
		deps := &mockDeps{controls: []service.FilterControl{{Column: model.ColCredit, Options: []string{"I", "B", "A"}}}}
		h := newRouter(deps)

		Convey("When the dataset is available", func() {
			w := do(h, "/api/filters")

			Convey("Then the controls should be returned in order", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var body struct {
					Controls []service.FilterControl `json:"controls"`
					Warnings []service.Warning       `json:"warnings"`
				}
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body.Controls[0].Options, ShouldResemble, []string{"I", "B", "A"})
				So(body.Warnings, ShouldNotBeNil)
			})
		})

		Convey("When the dataset is unavailable", func() {
			deps.err = service.ErrDatasetUnavailable
			w := do(h, "/api/filters")

			Convey("Then it should answer 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(w.Body.String(), ShouldContainSubstring, "dataset_unavailable")
			})
		})
	})
}

func TestView(t *testing.T) {
	Convey("Given GET /api/view", t, func() {
		deps := &mockDeps{}
		h := newRouter(deps)

		Convey("When the query selects values", func() {
			w := do(h, "/api/view?zip=53703&ZIP=53711&EMPLOYEES=50+to+99")

			Convey("Then the selection should reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastSel[model.ColZIP], ShouldHaveLength, 2)
				So(deps.lastSel[model.ColEmployees], ShouldResemble, []string{"50 to 99"})
				So(w.Body.String(), ShouldContainSubstring, `"id":"view-1"`)
			})
		})

		Convey("When the query names an unknown column", func() {
			w := do(h, "/api/view?REVENUE=1")

			Convey("Then it should answer 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(w.Body.String(), ShouldContainSubstring, "unknown_column")
				So(deps.lastSel, ShouldBeNil)
			})
		})

		Convey("When rendering fails unexpectedly", func() {
			deps.err = errors.New("boom")
			w := do(h, "/api/view")
			So(w.Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestRecords(t *testing.T) {
	Convey("Given GET /api/records", t, func() {
		deps := &mockDeps{records: []model.Record{{Row: 4, Company: "Acme", ZIP: "53703", Latitude: model.Float(43.07), Longitude: model.Float(-89.38)}}}
		h := newRouter(deps)

		w := do(h, "/api/records?CREDIT=A")

		Convey("Then the rows should be returned with a count", func() {
			So(w.Code, ShouldEqual, http.StatusOK)
			var body struct {
				Count   int            `json:"count"`
				Records []model.Record `json:"records"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
			So(body.Count, ShouldEqual, 1)
			So(body.Records[0].ZIP, ShouldEqual, "53703")
			So(*body.Records[0].Latitude, ShouldEqual, 43.07)
		})

		Convey("And an empty result should be an empty list, not null", func() {
			deps.records = nil
			w := do(h, "/api/records")
			So(strings.Contains(w.Body.String(), `"records":[]`), ShouldBeTrue)
		})
	})
}

func TestErrorType(t *testing.T) {
	Convey("Given HTTP status codes", t, func() {
		So(api.ErrorType(http.StatusServiceUnavailable), ShouldEqual, "unavailable")
		So(api.ErrorType(http.StatusInternalServerError), ShouldEqual, "server_error")
		So(api.ErrorType(http.StatusNotFound), ShouldEqual, "not_found")
		So(api.ErrorType(http.StatusBadRequest), ShouldEqual, "client_error")
	})
}
