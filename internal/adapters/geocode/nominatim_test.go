package geocode_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gigmatch/gigmatch/internal/adapters/geocode"
	"github.com/gigmatch/gigmatch/internal/domain/geo"
	"github.com/gigmatch/gigmatch/internal/domain/location"
	. "github.com/smartystreets/goconvey/convey"
)

func TestForward(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Nominatim-compatible server", t, func() {
		var gotQuery map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = map[string]string{
				"q":            r.URL.Query().Get("q"),
				"countrycodes": r.URL.Query().Get("countrycodes"),
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[
				{"lat":"48.8566","lon":"2.3522","display_name":"Paris, France",
				 "address":{"city":"Paris","postcode":"75001"}},
				{"lat":"not-a-number","lon":"0","display_name":"junk","address":{}}
			]`))
		}))
		defer srv.Close()
		c := geocode.NewClient(geocode.WithBaseURL(srv.URL))

		Convey("When forward geocoding a query", func() {
			results, err := c.Forward(ctx, "10 rue de Rivoli", "fr")

			Convey("Then parsable matches come back and junk is skipped", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 1)
				So(results[0].City, ShouldEqual, "Paris")
				So(results[0].PostalCode, ShouldEqual, "75001")
				So(results[0].Coordinates.Latitude, ShouldAlmostEqual, 48.8566, 0.0001)
			})

			Convey("And the query carries the country restriction", func() {
				So(gotQuery["q"], ShouldEqual, "10 rue de Rivoli")
				So(gotQuery["countrycodes"], ShouldEqual, "fr")
			})
		})
	})

	Convey("Given a server returning an error status", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()
		c := geocode.NewClient(geocode.WithBaseURL(srv.URL))

		Convey("Then the failure is typed as a geocoder outage", func() {
			_, err := c.Forward(ctx, "Paris", "fr")
			So(err, ShouldWrap, location.ErrGeocodeUnavailable)
		})
	})

	Convey("Given an unreachable server", t, func() {
		c := geocode.NewClient(geocode.WithBaseURL("http://127.0.0.1:1"))

		Convey("Then the connection error is typed as an outage", func() {
			_, err := c.Forward(ctx, "Paris", "fr")
			So(err, ShouldWrap, location.ErrGeocodeUnavailable)
		})
	})
}

func TestReverse(t *testing.T) {
	ctx := context.Background()

	Convey("Given a server that knows the place", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"lat":"45.764","lon":"4.8357","display_name":"Lyon, France",
				"address":{"town":"Lyon","postcode":"69001"}}`))
		}))
		defer srv.Close()
		c := geocode.NewClient(geocode.WithBaseURL(srv.URL))

		Convey("When reverse geocoding coordinates", func() {
			res, err := c.Reverse(ctx, geo.Coordinates{Latitude: 45.764, Longitude: 4.8357})

			Convey("Then the town name fills the city field", func() {
				So(err, ShouldBeNil)
				So(res.City, ShouldEqual, "Lyon")
				So(res.PostalCode, ShouldEqual, "69001")
			})
		})
	})
}
