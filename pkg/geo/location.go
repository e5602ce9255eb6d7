// Package geo holds the coordinate types shared by the resolver and the encoders.
package geo

import "fmt"

// Location is a single latitude/longitude pair in degrees.
// Values are taken as-is from the OSM API; no range validation is applied.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Pair returns the location as a [lat, lon] slice.
func (l Location) Pair() [2]float64 {
	return [2]float64{l.Latitude, l.Longitude}
}

// String implements fmt.Stringer.
func (l Location) String() string {
	return fmt.Sprintf("(%g, %g)", l.Latitude, l.Longitude)
}
