package service_test

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/bizmap/internal/adapters/dataset"
	service "github.com/okian/bizmap/internal/app"
	"github.com/okian/bizmap/internal/domain/filter"
	"github.com/okian/bizmap/internal/domain/model"
	"github.com/okian/bizmap/internal/domain/ordering"
	"github.com/okian/bizmap/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const integrationCSV = `COMPANY,ADDRESS,CITY,STATE,ZIP,CONTACT,EMPLOYEES,SALES,SIC,CREDIT,FLEET,Lat,Lon
Acme Foods,1 Main St,Madison,WI,"53,703",Ann Lee,50 to 99,$20 - 50 MILLION,2011,A,1 to 10,43.0747,-89.3841
Badger Tool,9 Park St,Madison,WI,53711,Bo Ray,50 to 99,$50 - 100 MILLION,3423,B+,Unknown,43.0322,-89.4512
Capitol Print,2 State St,Madison,WI,53703,Cy Dee,10 to 19,$20 - 50 MILLION,2752,A,Unknown,,-89.3870
Dane Metal,5 East Wash,Madison,WI,53704,Di Fox,100 to 249,OVER $1 BILLION,3312,A+,20 to 49,43.1100,-89.3500
Elm Grocers,7 Elm Dr,Madison,WI,53711,Ed Sun,5 to 9,$100 - 500 MILLION,5411,I,50+,43.0500,-89.5000
Fox Labs,3 Fox Rd,Madison,WI,"53,704",Fi Oak,1000 to 4999,$500 MILLION - $1 BILLION,8731,B,50 to 99,43.0900,-89.4200
`

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service reading the CSV over HTTP", t, func() {
		var hits atomic.Int64
		origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "text/csv")
			_, _ = w.Write([]byte(integrationCSV))
		}))
		defer origin.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		src, err := dataset.NewSource(ctx, origin.URL+"/List1.csv", dataset.WithHTTPClient(origin.Client()))
		So(err, ShouldBeNil)
		cache := dataset.NewCache(src, dataset.WithLogger(logger.Named("dataset")))

		svc := service.New(
			service.WithCache(cache),
			service.WithLogger(logger.Named("service")),
			service.WithPreload(true),
		)
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		Convey("When rendering random selections", func() {
			r := rand.New(rand.NewSource(1))
			records, err := svc.Records(ctx, filter.Selection{})
			So(err, ShouldBeNil)

			Convey("Then every table row should be located, ZIPs clean and the selection honoured", func() {
				for i := 0; i < 100; i++ {
					sel := filter.Selection{}
					for _, c := range []model.Column{model.ColZIP, model.ColEmployees, model.ColCredit, model.ColFleet} {
						opts := filter.Distinct(records, c)
						if r.Intn(2) == 0 {
							sel[c] = []string{opts[r.Intn(len(opts))]}
						}
					}

					view, err := svc.Render(ctx, sel)
					So(err, ShouldBeNil)
					for _, row := range view.Table.Rows {
						So(row[11], ShouldNotBeEmpty)
						So(row[12], ShouldNotBeEmpty)
						So(strings.Contains(row[4], ","), ShouldBeFalse)
						for c, vals := range sel {
							col := indexOf(view.Table.Columns, string(c))
							So(vals, ShouldContain, row[col])
						}
					}
				}
			})

			Convey("And the origin should have been fetched only once", func() {
				_, _ = svc.Render(ctx, filter.Selection{})
				_, _ = svc.Render(ctx, filter.Selection{model.ColZIP: {"53711"}})
				So(hits.Load(), ShouldEqual, 1)
			})
		})

		Convey("When reading the filter controls", func() {
			controls, _, err := svc.Filters(ctx)
			So(err, ShouldBeNil)

			Convey("Then ordinal options should be the reference order restricted to present values", func() {
				o := ordering.New()
				for _, ctl := range controls {
					ref := o.Reference(ctl.Column)
					if ref == nil {
						continue
					}
					var want []string
					for _, v := range ref {
						if contains(ctl.Options, v) {
							want = append(want, v)
						}
					}
					So(ctl.Options, ShouldResemble, want)
				}
			})

			Convey("And ZIP options should be sorted without separators", func() {
				for _, ctl := range controls {
					if ctl.Column == model.ColZIP {
						So(ctl.Options, ShouldResemble, []string{"53703", "53704", "53711"})
					}
				}
			})
		})
	})
}

func TestServiceDeterminism(t *testing.T) {
	Convey("Given the same CSV loaded twice", t, func() {
		load := func() *service.Service {
			records, skipped, err := dataset.Decode(strings.NewReader(integrationCSV))
			So(err, ShouldBeNil)
			ds := model.NewDataset("test://integration", records, skipped, time.Now())
			return service.New(service.WithCache(&stubProvider{ds: ds}))
		}
		a, b := load(), load()
		sel := filter.Selection{model.ColEmployees: {"50 to 99", "5 to 9"}, model.ColZIP: {"53711"}}

		Convey("Then the same selection should give identical filtered subsets", func() {
			va, err := a.Render(context.Background(), sel)
			So(err, ShouldBeNil)
			vb, err := b.Render(context.Background(), sel)
			So(err, ShouldBeNil)
			So(va.Table, ShouldResemble, vb.Table)
			So(va.Matched, ShouldEqual, 2)
		})
	})
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
