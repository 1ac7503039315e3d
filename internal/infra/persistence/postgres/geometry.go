package postgres

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	"github.com/pkg/errors"
)

// orbPoint assembles an orb.Point from the ST_X/ST_Y scan columns.
func orbPoint(longitude, latitude float64) orb.Point {
	return orb.Point{longitude, latitude}
}

// decodeLineString parses the ST_AsBinary output of a LineString column.
func decodeLineString(data []byte) (orb.LineString, error) {
	geom, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode route geometry")
	}

	line, ok := geom.(orb.LineString)
	if !ok {
		return nil, errors.Errorf("route geometry is %T, expected LineString", geom)
	}

	return line, nil
}
