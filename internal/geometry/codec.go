// Package geometry converts between the GeoJSON exchange format used on
// the API surface and the WKT literals stored in PostGIS.
//
// Inbound coordinate lists use [lat, lng] order (the map-widget
// convention); storage literals use (lng lat) order as PostGIS expects.
// Every call site relies on the codec performing this swap.
package geometry

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/paulmach/orb/geojson"
)

// Coordinate validation constants
const (
	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0

	// MinPolygonPoints is the minimum number of vertices for a parcel
	// or division boundary.
	MinPolygonPoints = 3
)

var (
	// ErrInvalidGeometry indicates malformed or out-of-range coordinate input.
	ErrInvalidGeometry = errors.New("invalid geometry")
	// ErrUnsupportedGeometryType indicates an exchange-format geometry type
	// the codec does not handle.
	ErrUnsupportedGeometryType = errors.New("unsupported geometry type")
)

// ValidateCoordinates checks a raw [lat, lng] coordinate list.
// It fails with ErrInvalidGeometry unless the list has at least
// MinPolygonPoints entries, every entry is a pair, and every pair is
// within valid latitude/longitude ranges.
func ValidateCoordinates(points [][]float64) error {
	if len(points) < MinPolygonPoints {
		return fmt.Errorf("%w: at least %d coordinates are required, got %d",
			ErrInvalidGeometry, MinPolygonPoints, len(points))
	}

	for i, point := range points {
		if len(point) != 2 {
			return fmt.Errorf("%w: coordinate %d must be a [lat, lng] pair, got %d values",
				ErrInvalidGeometry, i, len(point))
		}

		lat, lng := point[0], point[1]
		if lat < MinLatitude || lat > MaxLatitude {
			return fmt.Errorf("%w: coordinate %d latitude %f out of range [%g, %g]",
				ErrInvalidGeometry, i, lat, MinLatitude, MaxLatitude)
		}
		if lng < MinLongitude || lng > MaxLongitude {
			return fmt.Errorf("%w: coordinate %d longitude %f out of range [%g, %g]",
				ErrInvalidGeometry, i, lng, MinLongitude, MaxLongitude)
		}
	}

	return nil
}

// PolygonLiteral converts a [lat, lng] coordinate list into a closed-ring
// POLYGON WKT literal in (lng lat) order. The input is validated first;
// the ring is closed if the caller did not close it.
func PolygonLiteral(points [][]float64) (string, error) {
	if err := ValidateCoordinates(points); err != nil {
		return "", err
	}

	ring := make(orb.Ring, 0, len(points)+1)
	for _, point := range points {
		// Input is [lat, lng]; storage order is (lng, lat).
		ring = append(ring, orb.Point{point[1], point[0]})
	}
	if ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}

	return wkt.MarshalString(orb.Polygon{ring}), nil
}

// BoundsLiteral builds a rectangular POLYGON WKT literal from the four
// edges of a bounding box. The caller is responsible for validating the
// box; this is pure construction.
func BoundsLiteral(north, south, east, west float64) string {
	ring := orb.Ring{
		{west, south},
		{east, south},
		{east, north},
		{west, north},
		{west, south},
	}
	return wkt.MarshalString(orb.Polygon{ring})
}

// FromGeoJSON converts an exchange-format geometry into a storage WKT
// literal. Point, LineString, Polygon and MultiPolygon are supported;
// anything else fails with ErrUnsupportedGeometryType. GeoJSON is
// already (lng, lat), so no axis swap happens here.
func FromGeoJSON(g *geojson.Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("%w: nil geometry", ErrInvalidGeometry)
	}

	switch geom := g.Geometry().(type) {
	case orb.Point, orb.LineString, orb.Polygon, orb.MultiPolygon:
		return wkt.MarshalString(geom), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedGeometryType, g.Type)
	}
}

// ToGeoJSON parses a storage WKT literal back into an exchange-format
// geometry. This is a best-effort reverse: Point, Polygon and
// MultiPolygon literals are recognized; anything malformed or of another
// type yields nil rather than an error. Callers drop nil geometries and
// count them (see the spatial service degraded-mode policy).
func ToGeoJSON(literal string) *geojson.Geometry {
	if literal == "" {
		return nil
	}

	geom, err := wkt.Unmarshal(literal)
	if err != nil {
		return nil
	}

	switch geom.(type) {
	case orb.Point, orb.Polygon, orb.MultiPolygon:
		return geojson.NewGeometry(geom)
	default:
		return nil
	}
}
