package location

import "github.com/gigmatch/gigmatch/internal/domain/geo"

// defaultCountryCode restricts forward geocoding; the marketplace operates in
// a single country.
const defaultCountryCode = "fr"

// defaultCityTable returns the built-in coordinates of the cities the
// marketplace is active in. Used when network geocoding is unavailable and
// for quick estimates; not meant to be exhaustive.
func defaultCityTable() map[string]geo.Coordinates {
	return map[string]geo.Coordinates{
		"Paris":       {Latitude: 48.8566, Longitude: 2.3522},
		"Marseille":   {Latitude: 43.2965, Longitude: 5.3698},
		"Lyon":        {Latitude: 45.7640, Longitude: 4.8357},
		"Toulouse":    {Latitude: 43.6047, Longitude: 1.4442},
		"Nice":        {Latitude: 43.7102, Longitude: 7.2620},
		"Nantes":      {Latitude: 47.2184, Longitude: -1.5536},
		"Montpellier": {Latitude: 43.6108, Longitude: 3.8767},
		"Strasbourg":  {Latitude: 48.5734, Longitude: 7.7521},
		"Bordeaux":    {Latitude: 44.8378, Longitude: -0.5792},
		"Lille":       {Latitude: 50.6292, Longitude: 3.0573},
		"Rennes":      {Latitude: 48.1173, Longitude: -1.6778},
		"Reims":       {Latitude: 49.2583, Longitude: 4.0317},
		"Toulon":      {Latitude: 43.1242, Longitude: 5.9280},
		"Grenoble":    {Latitude: 45.1885, Longitude: 5.7245},
		"Dijon":       {Latitude: 47.3220, Longitude: 5.0415},
		"Angers":      {Latitude: 47.4784, Longitude: -0.5632},
	}
}
