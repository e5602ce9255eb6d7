// Package osm provides a client for the OpenStreetMap editing API (v0.6).
package osm

import "fmt"

// ElementKind names an OSM element type as used in API paths and member types.
type ElementKind string

// Element kinds
const (
	KindNode     ElementKind = "node"
	KindWay      ElementKind = "way"
	KindRelation ElementKind = "relation"
)

// ParseKind validates s as an element kind. "rel" is accepted for relation.
func ParseKind(s string) (ElementKind, error) {
	switch s {
	case "node":
		return KindNode, nil
	case "way":
		return KindWay, nil
	case "relation", "rel":
		return KindRelation, nil
	}
	return "", fmt.Errorf("unknown element kind %q (want node, way or relation)", s)
}

// Member is one <member> of a relation. Absent attributes are empty strings.
type Member struct {
	Type string
	Ref  string
	Role string
}
