// Package export encodes resolved coordinates for output.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/geo"
	"github.com/NERVsystems/rel2coords/pkg/osm"
)

// Format selects an output encoding
type Format string

// Supported formats
const (
	FormatJSON     Format = "json"
	FormatPolyline Format = "polyline"
	FormatGeoJSON  Format = "geojson"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatPolyline, FormatGeoJSON}

// ParseFormat validates s as a Format
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want json, polyline or geojson)", s)
}

// Feature is the element being exported.
type Feature struct {
	Kind        osm.ElementKind
	ID          string
	Coordinates []geo.Location
}

// Encode renders f in the given format, without a trailing newline.
func Encode(format Format, f Feature) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.Marshal(Pairs(f.Coordinates))
	case FormatPolyline:
		return []byte(core.EncodePolyline(f.Coordinates)), nil
	case FormatGeoJSON:
		return json.Marshal(GeoJSON(f))
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// Write encodes f to w followed by a newline.
func Write(w io.Writer, format Format, f Feature) error {
	b, err := Encode(format, f)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// Pairs converts locations to [lat, lon] pairs. The result is never nil.
func Pairs(locs []geo.Location) [][2]float64 {
	out := make([][2]float64, 0, len(locs))
	for _, l := range locs {
		out = append(out, l.Pair())
	}
	return out
}

// GeoJSON builds a Feature: a Point for a node, a LineString otherwise, and
// a MultiPoint when there are too few positions for either.
func GeoJSON(f Feature) *geojson.Feature {
	points := make([]orb.Point, 0, len(f.Coordinates))
	for _, l := range f.Coordinates {
		points = append(points, orb.Point{l.Longitude, l.Latitude})
	}

	var g orb.Geometry
	switch {
	case f.Kind == osm.KindNode && len(points) == 1:
		g = points[0]
	case f.Kind != osm.KindNode && len(points) >= 2:
		g = orb.LineString(points)
	default:
		g = orb.MultiPoint(points)
	}

	feature := geojson.NewFeature(g)
	if n, err := strconv.ParseInt(f.ID, 10, 64); err == nil {
		feature.ID = n
	} else {
		feature.ID = f.ID
	}
	feature.Properties["type"] = string(f.Kind)
	return feature
}
