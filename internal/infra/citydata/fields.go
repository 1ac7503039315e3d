package citydata

import (
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
)

// Field accessors for untyped portal rows. Socrata serves numbers as JSON
// strings in most legacy datasets, so every numeric read goes through
// asFloat.

// stringField returns the first non-empty value among the key aliases.
func stringField(r row, keys ...string) string {
	for _, key := range keys {
		if value, ok := r[key]; ok {
			if s, ok := value.(string); ok && s != "" {
				return s
			}
		}
	}

	return ""
}

// floatField returns the first parseable numeric value among the key aliases,
// or 0 when none parses.
func floatField(r row, keys ...string) float64 {
	for _, key := range keys {
		if value, ok := r[key]; ok {
			if f, ok := asFloat(value); ok {
				return f
			}
		}
	}

	return 0
}

// timeField parses the first timestamp among the key aliases, tolerating both
// floating timestamps and RFC3339.
func timeField(r row, keys ...string) time.Time {
	raw := stringField(r, keys...)
	if raw == "" {
		return time.Time{}
	}

	for _, layout := range []string{soqlTimeLayout, time.RFC3339, "2006-01-02T15:04:05.000"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}

	return time.Time{}
}

// pointField extracts a lon/lat point from the row, trying plain coordinate
// columns first and the GeoJSON the_geom column as a fallback.
func pointField(r row) (orb.Point, bool) {
	lat, latOK := firstFloat(r, "latitude", "lat", "y")
	lon, lonOK := firstFloat(r, "longitude", "long", "lng", "x")
	if latOK && lonOK {
		return orb.Point{lon, lat}, true
	}

	return geomPoint(r, "the_geom", "location")
}

// trafficPoint prefers the segment start coordinates the congestion dataset
// uses, falling back to the generic extraction.
func trafficPoint(r row) (orb.Point, bool) {
	lat, latOK := firstFloat(r, "start_lat", "_lif_lat")
	lon, lonOK := firstFloat(r, "start_lon", "start_longitude", "_lit_lon")
	if latOK && lonOK {
		return orb.Point{lon, lat}, true
	}

	return pointField(r)
}

// permitAddress assembles the street address the permits dataset splits
// across three columns.
func permitAddress(r row) string {
	parts := []string{
		stringField(r, "street_number"),
		stringField(r, "street_direction"),
		stringField(r, "street_name"),
	}

	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			fields = append(fields, part)
		}
	}

	return strings.Join(fields, " ")
}

func firstFloat(r row, keys ...string) (float64, bool) {
	for _, key := range keys {
		if value, ok := r[key]; ok {
			if f, ok := asFloat(value); ok {
				return f, true
			}
		}
	}

	return 0, false
}

// geomPoint reads a GeoJSON point column, e.g. {"type": "Point",
// "coordinates": [-87.6, 41.8]}.
func geomPoint(r row, keys ...string) (orb.Point, bool) {
	for _, key := range keys {
		geom, ok := r[key].(map[string]any)
		if !ok {
			continue
		}

		coords, ok := geom["coordinates"].([]any)
		if !ok || len(coords) < 2 {
			continue
		}

		lon, lonOK := asFloat(coords[0])
		lat, latOK := asFloat(coords[1])
		if lonOK && latOK {
			return orb.Point{lon, lat}, true
		}
	}

	return orb.Point{}, false
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}

		return f, true
	}

	return 0, false
}
