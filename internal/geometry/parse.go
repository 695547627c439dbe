package geometry

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// ParsePoints parses "lat,lng;lat,lng;..." into vertices. Whitespace around
// separators is ignored and a trailing ";" is allowed.
func ParsePoints(s string) ([]GeoPoint, error) {
	var pts []GeoPoint
	for i, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.Split(pair, ",")
		if len(parts) != 2 {
			return nil, eris.Errorf("geometry: point %d: expected \"lat,lng\", got %q", i, pair)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: point %d: parse latitude", i)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "geometry: point %d: parse longitude", i)
		}

		pts = append(pts, GeoPoint{Lat: lat, Lng: lng})
	}

	if len(pts) == 0 {
		return nil, eris.New("geometry: no points given")
	}
	return pts, nil
}
