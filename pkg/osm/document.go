package osm

import (
	"math"
	"strconv"

	"github.com/beevik/etree"

	"github.com/NERVsystems/rel2coords/pkg/core"
	"github.com/NERVsystems/rel2coords/pkg/geo"
)

// Element returns the first <kind> child of the <osm> root.
func Element(doc *etree.Document, kind ElementKind) (*etree.Element, error) {
	root := doc.SelectElement("osm")
	if root == nil {
		return nil, core.NewError(core.ErrParseError, "document has no <osm> root")
	}
	el := root.SelectElement(string(kind))
	if el == nil {
		return nil, core.NewError(core.ErrParseError, "document has no <"+string(kind)+"> element")
	}
	return el, nil
}

// Members lists a relation's members in document order.
func Members(rel *etree.Element) []Member {
	children := rel.SelectElements("member")
	members := make([]Member, 0, len(children))
	for _, m := range children {
		members = append(members, Member{
			Type: m.SelectAttrValue("type", ""),
			Ref:  m.SelectAttrValue("ref", ""),
			Role: m.SelectAttrValue("role", ""),
		})
	}
	return members
}

// NodeRefs lists the ref of each <nd> of a way in order; a missing ref is "".
func NodeRefs(way *etree.Element) []string {
	nds := way.SelectElements("nd")
	refs := make([]string, 0, len(nds))
	for _, nd := range nds {
		refs = append(refs, nd.SelectAttrValue("ref", ""))
	}
	return refs
}

// NodeLocation reads the lat/lon attributes of a <node>.
func NodeLocation(node *etree.Element) (geo.Location, error) {
	lat, err := floatAttr(node, "lat")
	if err != nil {
		return geo.Location{}, err
	}
	lon, err := floatAttr(node, "lon")
	if err != nil {
		return geo.Location{}, err
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}

func floatAttr(el *etree.Element, key string) (float64, error) {
	a := el.SelectAttr(key)
	if a == nil {
		return 0, core.NewError(core.ErrMissingAttribute, "node has no "+key+" attribute")
	}
	v, err := strconv.ParseFloat(a.Value, 64)
	if err != nil {
		return 0, core.NewError(core.ErrParseError, "invalid "+key+" attribute").WithCause(err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, core.NewError(core.ErrParseError, key+" attribute is not a finite number: "+a.Value)
	}
	return v, nil
}
