package geo_test

import (
	"math"
	"testing"

	"github.com/gigmatch/gigmatch/internal/domain/geo"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	paris = geo.Coordinates{Latitude: 48.8566, Longitude: 2.3522}
	lyon  = geo.Coordinates{Latitude: 45.7640, Longitude: 4.8357}
)

func TestDistanceKm(t *testing.T) {
	Convey("Given two French cities", t, func() {
		Convey("Then Paris to Lyon is roughly 392 km", func() {
			d := geo.DistanceKm(paris, lyon)
			So(d, ShouldBeGreaterThan, 390)
			So(d, ShouldBeLessThan, 395)
		})

		Convey("And the distance is symmetric", func() {
			So(geo.DistanceKm(paris, lyon), ShouldEqual, geo.DistanceKm(lyon, paris))
		})

		Convey("And the distance from a point to itself is zero", func() {
			So(geo.DistanceKm(paris, paris), ShouldEqual, 0)
		})

		Convey("And results are rounded to one decimal place", func() {
			d := geo.DistanceKm(paris, lyon)
			So(d*10, ShouldAlmostEqual, math.Round(d*10), 1e-9)
		})
	})

	Convey("Given antipodal-ish points", t, func() {
		a := geo.Coordinates{Latitude: 0, Longitude: 0}
		b := geo.Coordinates{Latitude: 0, Longitude: 180}

		Convey("Then the distance stays below half the Earth circumference", func() {
			d := geo.DistanceKm(a, b)
			So(d, ShouldBeGreaterThan, 20000)
			So(d, ShouldBeLessThan, 20040)
		})
	})
}

func TestCoordinatesValid(t *testing.T) {
	Convey("Given candidate coordinate pairs", t, func() {
		Convey("Then in-range pairs are valid", func() {
			So(paris.Valid(), ShouldBeTrue)
			So(geo.Coordinates{Latitude: -90, Longitude: 180}.Valid(), ShouldBeTrue)
			So(geo.Coordinates{}.Valid(), ShouldBeTrue)
		})

		Convey("Then out-of-range pairs are invalid", func() {
			So(geo.Coordinates{Latitude: 91, Longitude: 0}.Valid(), ShouldBeFalse)
			So(geo.Coordinates{Latitude: 0, Longitude: -181}.Valid(), ShouldBeFalse)
		})
	})
}
