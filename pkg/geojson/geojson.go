// Package geojson provides GeoJSON geometry types and utilities for burst
// footprints.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Geometry represents a GeoJSON geometry object.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPoint creates a Point geometry from a [lon, lat] pair.
func NewPoint(lon, lat float64) (*Geometry, error) {
	coordsJSON, err := json.Marshal([]float64{lon, lat})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal point coordinates: %w", err)
	}
	return &Geometry{Type: "Point", Coordinates: coordsJSON}, nil
}

// NewPolygon creates a single-ring Polygon geometry from an ordered list of
// [lon, lat] vertices. The ring is closed automatically if the last vertex
// does not equal the first.
func NewPolygon(ring [][]float64) (*Geometry, error) {
	if len(ring) < 3 {
		return nil, fmt.Errorf("polygon ring needs at least 3 vertices, got %d", len(ring))
	}
	for i, vertex := range ring {
		if len(vertex) < 2 {
			return nil, fmt.Errorf("polygon vertex %d: expected [lon, lat], got %d values", i, len(vertex))
		}
	}

	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		closed := make([][]float64, len(ring)+1)
		copy(closed, ring)
		closed[len(ring)] = []float64{first[0], first[1]}
		ring = closed
	}

	coordsJSON, err := json.Marshal([][][]float64{ring})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon coordinates: %w", err)
	}
	return &Geometry{Type: "Polygon", Coordinates: coordsJSON}, nil
}

// Point returns the coordinates as a Point [lon, lat].
// Returns error if geometry is not a Point.
func (g *Geometry) Point() ([]float64, error) {
	if g.Type != "Point" {
		return nil, fmt.Errorf("geometry is not a Point, got %s", g.Type)
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Point coordinates: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("invalid Point coordinates: expected at least 2 values, got %d", len(coords))
	}
	return coords, nil
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// BBox computes the bounding box of the geometry.
// Returns [west, south, east, north].
func (g *Geometry) BBox() ([]float64, error) {
	if g == nil {
		return nil, fmt.Errorf("geometry is nil")
	}

	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)

	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return nil, err
		}
		return []float64{coords[0], coords[1], coords[0], coords[1]}, nil

	case "Polygon":
		coords, err := g.Polygon()
		if err != nil {
			return nil, err
		}
		for _, ring := range coords {
			for _, point := range ring {
				if len(point) < 2 {
					continue
				}
				minLon = math.Min(minLon, point[0])
				maxLon = math.Max(maxLon, point[0])
				minLat = math.Min(minLat, point[1])
				maxLat = math.Max(maxLat, point[1])
			}
		}

	default:
		return nil, fmt.Errorf("unsupported geometry type: %s", g.Type)
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) {
		return nil, fmt.Errorf("failed to compute bounding box: no valid coordinates found")
	}

	return []float64{minLon, minLat, maxLon, maxLat}, nil
}

// Centroid computes the vertex centroid of the exterior ring of a Polygon,
// or returns the coordinates of a Point. The closing vertex of a ring is
// excluded so it is not counted twice.
func (g *Geometry) Centroid() (lon, lat float64, err error) {
	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return 0, 0, err
		}
		return coords[0], coords[1], nil

	case "Polygon":
		coords, err := g.Polygon()
		if err != nil {
			return 0, 0, err
		}
		if len(coords) == 0 || len(coords[0]) == 0 {
			return 0, 0, fmt.Errorf("polygon has no exterior ring")
		}
		ring := coords[0]
		if len(ring) > 1 {
			first, last := ring[0], ring[len(ring)-1]
			if len(first) >= 2 && len(last) >= 2 && first[0] == last[0] && first[1] == last[1] {
				ring = ring[:len(ring)-1]
			}
		}
		var sumLon, sumLat float64
		n := 0
		for _, point := range ring {
			if len(point) < 2 {
				continue
			}
			sumLon += point[0]
			sumLat += point[1]
			n++
		}
		if n == 0 {
			return 0, 0, fmt.Errorf("polygon ring has no valid vertices")
		}
		return sumLon / float64(n), sumLat / float64(n), nil

	default:
		return 0, 0, fmt.Errorf("unsupported geometry type for centroid: %s", g.Type)
	}
}

// ToWKT converts a GeoJSON geometry to WKT format.
// Supports Point and Polygon.
func ToWKT(g *Geometry) (string, error) {
	if g == nil {
		return "", fmt.Errorf("geometry is nil")
	}

	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("POINT(%s %s)", formatFloat(coords[0]), formatFloat(coords[1])), nil

	case "Polygon":
		coords, err := g.Polygon()
		if err != nil {
			return "", err
		}
		var rings []string
		for _, ring := range coords {
			points := make([]string, len(ring))
			for i, point := range ring {
				if len(point) < 2 {
					return "", fmt.Errorf("invalid point in polygon ring: expected at least 2 coordinates")
				}
				points[i] = fmt.Sprintf("%s %s", formatFloat(point[0]), formatFloat(point[1]))
			}
			rings = append(rings, "("+strings.Join(points, ",")+")")
		}
		return "POLYGON(" + strings.Join(rings, ",") + ")", nil

	default:
		return "", fmt.Errorf("unsupported geometry type for WKT conversion: %s", g.Type)
	}
}

// FromWKT parses a WKT string into a GeoJSON geometry.
// Supports Point and Polygon.
func FromWKT(wkt string) (*Geometry, error) {
	wkt = strings.TrimSpace(wkt)
	if wkt == "" {
		return nil, fmt.Errorf("empty WKT string")
	}

	upperWKT := strings.ToUpper(wkt)
	switch {
	case strings.HasPrefix(upperWKT, "POINT"):
		return parsePointWKT(wkt)
	case strings.HasPrefix(upperWKT, "POLYGON"):
		return parsePolygonWKT(wkt)
	default:
		return nil, fmt.Errorf("unsupported WKT geometry type")
	}
}

func parsePointWKT(wkt string) (*Geometry, error) {
	start := strings.Index(wkt, "(")
	end := strings.LastIndex(wkt, ")")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("invalid POINT WKT format")
	}

	coords, err := parseCoordPair(strings.TrimSpace(wkt[start+1 : end]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse POINT coordinates: %w", err)
	}
	return NewPoint(coords[0], coords[1])
}

func parsePolygonWKT(wkt string) (*Geometry, error) {
	start := strings.Index(wkt, "(")
	end := strings.LastIndex(wkt, ")")
	if start == -1 || end == -1 || start >= end {
		return nil, fmt.Errorf("invalid POLYGON WKT format")
	}

	rings, err := parseRings(wkt[start+1 : end])
	if err != nil {
		return nil, fmt.Errorf("failed to parse POLYGON rings: %w", err)
	}

	coordsJSON, err := json.Marshal(rings)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal polygon coordinates: %w", err)
	}
	return &Geometry{Type: "Polygon", Coordinates: coordsJSON}, nil
}

// parseCoordPair parses a coordinate pair "lon lat" into [lon, lat]
func parseCoordPair(s string) ([]float64, error) {
	parts := strings.Fields(strings.TrimSpace(s))
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid coordinate pair: %s", s)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %s", parts[0])
	}

	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %s", parts[1])
	}

	return []float64{lon, lat}, nil
}

// parseRing parses a ring string like "(lon lat,lon lat,...)" into [][]float64
func parseRing(s string) ([][]float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("ring must be enclosed in parentheses")
	}

	content := s[1 : len(s)-1]
	coordPairs := strings.Split(content, ",")

	ring := make([][]float64, 0, len(coordPairs))
	for _, pair := range coordPairs {
		coords, err := parseCoordPair(pair)
		if err != nil {
			return nil, err
		}
		ring = append(ring, coords)
	}

	return ring, nil
}

// parseRings parses multiple rings for a polygon
func parseRings(s string) ([][][]float64, error) {
	ringStrings, err := splitByParentheses(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}

	rings := make([][][]float64, 0, len(ringStrings))
	for _, ringStr := range ringStrings {
		ring, err := parseRing(ringStr)
		if err != nil {
			return nil, err
		}
		rings = append(rings, ring)
	}

	return rings, nil
}

// splitByParentheses splits a string into substrings enclosed by parentheses
func splitByParentheses(s string) ([]string, error) {
	var result []string
	var current strings.Builder
	depth := 0

	for i, ch := range s {
		switch ch {
		case '(':
			if depth == 0 && current.Len() > 0 {
				current.Reset()
			}
			current.WriteRune(ch)
			depth++
		case ')':
			current.WriteRune(ch)
			depth--
			if depth == 0 {
				result = append(result, current.String())
				current.Reset()
			} else if depth < 0 {
				return nil, fmt.Errorf("unmatched closing parenthesis at position %d", i)
			}
		case ',':
			if depth == 0 {
				continue
			}
			current.WriteRune(ch)
		default:
			if depth > 0 {
				current.WriteRune(ch)
			}
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("unmatched parentheses")
	}

	return result, nil
}

// formatFloat formats a float64 for WKT output
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
