package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/geo"
	"github.com/NERVsystems/rel2coords/pkg/osm"
)

var route = []geo.Location{
	{Latitude: 38.5, Longitude: -120.2},
	{Latitude: 40.7, Longitude: -120.95},
	{Latitude: 43.252, Longitude: -126.453},
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		coords []geo.Location
		want   string
	}{
		{"empty", nil, "[]\n"},
		{"single", []geo.Location{{Latitude: 12.5, Longitude: -0.75}}, "[[12.5,-0.75]]\n"},
		{"route", route, "[[38.5,-120.2],[40.7,-120.95],[43.252,-126.453]]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := Write(&buf, FormatJSON, Feature{Kind: osm.KindRelation, ID: "1", Coordinates: tt.coords})
			if err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("got %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWritePolyline(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, FormatPolyline, Feature{Kind: osm.KindRelation, ID: "1", Coordinates: route}); err != nil {
		t.Fatal(err)
	}
	if got, want := buf.String(), "_p~iF~ps|U_ulLnnqC_mqNvxq`@\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	decoded, err := core.DecodePolyline(buf.String()[:buf.Len()-1])
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(route) {
		t.Fatalf("decoded %d points, want %d", len(decoded), len(route))
	}
}

type geoJSONFeature struct {
	Type     string `json:"type"`
	ID       any    `json:"id"`
	Geometry struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	} `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

func TestWriteGeoJSON(t *testing.T) {
	tests := []struct {
		name     string
		feature  Feature
		geomType string
		coords   string
		id       any
	}{
		{
			name:     "node",
			feature:  Feature{Kind: osm.KindNode, ID: "3668644956", Coordinates: []geo.Location{{Latitude: 12.5, Longitude: -0.75}}},
			geomType: "Point",
			coords:   "[-0.75,12.5]",
			id:       float64(3668644956),
		},
		{
			name:     "way",
			feature:  Feature{Kind: osm.KindWay, ID: "169202638", Coordinates: route[:2]},
			geomType: "LineString",
			coords:   "[[-120.2,38.5],[-120.95,40.7]]",
			id:       float64(169202638),
		},
		{
			name:     "relation with one point",
			feature:  Feature{Kind: osm.KindRelation, ID: "2128634", Coordinates: route[:1]},
			geomType: "MultiPoint",
			coords:   "[[-120.2,38.5]]",
			id:       float64(2128634),
		},
		{
			name:     "empty relation",
			feature:  Feature{Kind: osm.KindRelation, ID: "r1"},
			geomType: "MultiPoint",
			coords:   "[]",
			id:       "r1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Encode(FormatGeoJSON, tt.feature)
			if err != nil {
				t.Fatal(err)
			}
			var got geoJSONFeature
			if err := json.Unmarshal(b, &got); err != nil {
				t.Fatalf("invalid JSON %s: %v", b, err)
			}
			if got.Type != "Feature" {
				t.Errorf("type = %q", got.Type)
			}
			if got.Geometry.Type != tt.geomType {
				t.Errorf("geometry type = %q, want %q", got.Geometry.Type, tt.geomType)
			}
			if string(got.Geometry.Coordinates) != tt.coords {
				t.Errorf("coordinates = %s, want %s", got.Geometry.Coordinates, tt.coords)
			}
			if got.ID != tt.id {
				t.Errorf("id = %v (%T), want %v", got.ID, got.ID, tt.id)
			}
			if got.Properties["type"] != string(tt.feature.Kind) {
				t.Errorf("properties = %v", got.Properties)
			}
		})
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats {
		got, err := ParseFormat(string(f))
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %q, %v", f, got, err)
		}
	}
	if _, err := ParseFormat("wkt"); err == nil {
		t.Error("expected error for wkt")
	}
}
