package models

// Place is a nearby point of interest returned by the geo search provider.
type Place struct {
	// ID is the provider's element ID, stringified.
	ID string

	// Name is the display name. Providers may omit it.
	Name string

	// Lat and Lng are the point coordinates (for ways, the centroid).
	Lat float64
	Lng float64

	// Optional metadata, empty when the provider has none.
	OpeningHours string
	Phone        string
	Website      string
	Cuisine      string

	// Category is the search category the place matched.
	Category string
}
