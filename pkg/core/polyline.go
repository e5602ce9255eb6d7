package core

import (
	"errors"
	"math"
	"strings"

	"github.com/NERVsystems/rel2coords/pkg/geo"
)

// Polyline precisions in decimal places. Precision5 is Google's
// Encoded Polyline Algorithm Format; Precision6 is the "polyline6" variant.
const (
	Precision5 = 5
	Precision6 = 6
)

// ErrTruncatedPolyline is returned when a polyline ends mid-value or mid-pair.
var ErrTruncatedPolyline = errors.New("invalid polyline: unexpected end of string")

// EncodePolyline encodes points with 5 decimal places of precision.
// See https://developers.google.com/maps/documentation/utilities/polylinealgorithm
func EncodePolyline(points []geo.Location) string {
	return EncodePolylinePrecision(points, Precision5)
}

// DecodePolyline decodes a precision 5 polyline.
func DecodePolyline(polyline string) ([]geo.Location, error) {
	return DecodePolylinePrecision(polyline, Precision5)
}

// EncodePolylinePrecision encodes points as a delta-encoded polyline with the
// given number of decimal places.
func EncodePolylinePrecision(points []geo.Location, precision int) string {
	if len(points) == 0 {
		return ""
	}
	factor := math.Pow10(precision)

	var sb strings.Builder
	sb.Grow(len(points) * 12)

	var prevLat, prevLon int64
	for _, p := range points {
		lat := int64(math.Round(p.Latitude * factor))
		lon := int64(math.Round(p.Longitude * factor))
		writeVarint(&sb, lat-prevLat)
		writeVarint(&sb, lon-prevLon)
		prevLat, prevLon = lat, lon
	}
	return sb.String()
}

// DecodePolylinePrecision reverses EncodePolylinePrecision.
func DecodePolylinePrecision(polyline string, precision int) ([]geo.Location, error) {
	points := []geo.Location{}
	if polyline == "" {
		return points, nil
	}
	factor := math.Pow10(precision)

	var lat, lon int64
	for i := 0; i < len(polyline); {
		dLat, n, err := readVarint(polyline[i:])
		if err != nil {
			return nil, err
		}
		i += n
		if i >= len(polyline) {
			return nil, ErrTruncatedPolyline
		}
		dLon, n, err := readVarint(polyline[i:])
		if err != nil {
			return nil, err
		}
		i += n

		lat += dLat
		lon += dLon
		points = append(points, geo.Location{
			Latitude:  float64(lat) / factor,
			Longitude: float64(lon) / factor,
		})
	}
	return points, nil
}

// writeVarint appends one zigzag-encoded value as 5-bit chunks offset by 63.
func writeVarint(sb *strings.Builder, v int64) {
	u := uint64(v) << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte(0x20|(u&0x1f)) + 63)
		u >>= 5
	}
	sb.WriteByte(byte(u) + 63)
}

// readVarint decodes one value from the front of s, returning it and the
// number of bytes consumed.
func readVarint(s string) (int64, int, error) {
	var u uint64
	var shift uint
	for i := 0; i < len(s); i++ {
		b := int(s[i]) - 63
		if b < 0 || b > 0x3f {
			return 0, 0, errors.New("invalid polyline: character out of range")
		}
		u |= uint64(b&0x1f) << shift
		shift += 5
		if b < 0x20 {
			v := int64(u >> 1)
			if u&1 != 0 {
				v = ^v
			}
			return v, i + 1, nil
		}
		if shift > 63 {
			return 0, 0, errors.New("invalid polyline: value overflow")
		}
	}
	return 0, 0, ErrTruncatedPolyline
}
