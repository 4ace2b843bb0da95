package importer

import (
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"
)

// shapeRecord is one parcel polygon with its attribute row.
type shapeRecord struct {
	attrs    map[string]string
	lat, lng *float64
}

// readShapefile loads parcel records from an assessor shapefile. Attribute
// names are lowercased so the column mapping applies unchanged. The parcel
// centroid is computed from the outer ring of each polygon.
func readShapefile(path string) ([]shapeRecord, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open shapefile %s", path)
	}
	defer r.Close()

	fields := r.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.ToLower(strings.TrimSpace(f.String()))
	}

	log := zap.L().With(zap.String("component", "shapefile_reader"))

	var out []shapeRecord
	for r.Next() {
		n, shape := r.Shape()

		rec := shapeRecord{attrs: make(map[string]string, len(names))}
		for i, name := range names {
			rec.attrs[name] = strings.TrimSpace(r.ReadAttribute(n, i))
		}

		if poly, ok := shape.(*shp.Polygon); ok {
			lat, lng, err := polygonCentroid(poly)
			if err != nil {
				log.Warn("skipping centroid for malformed polygon",
					zap.Int("record", n), zap.Error(err))
			} else {
				rec.lat, rec.lng = &lat, &lng
			}
		}
		out = append(out, rec)
	}
	if err := r.Err(); err != nil {
		return nil, eris.Wrapf(err, "importer: read shapefile %s", path)
	}
	return out, nil
}

// polygonCentroid computes the area centroid of the outer ring.
func polygonCentroid(poly *shp.Polygon) (lat, lng float64, err error) {
	end := len(poly.Points)
	if len(poly.Parts) > 1 {
		end = int(poly.Parts[1])
	}
	if end < 4 {
		return 0, 0, eris.New("importer: polygon ring has too few points")
	}

	ring := make([]geom.Coord, 0, end)
	for _, p := range poly.Points[:end] {
		ring = append(ring, geom.Coord{p.X, p.Y})
	}

	g := geom.NewPolygon(geom.XY)
	if _, err := g.SetCoords([][]geom.Coord{ring}); err != nil {
		return 0, 0, eris.Wrap(err, "importer: build polygon")
	}
	c, err := xy.Centroid(g)
	if err != nil {
		return 0, 0, eris.Wrap(err, "importer: polygon centroid")
	}
	// Shapefile coordinates are (x=lng, y=lat).
	return c.Y(), c.X(), nil
}

// shapeCell mirrors cell() for shapefile attribute maps.
func shapeCell(rec shapeRecord, mapping ColumnMapping, field string) string {
	for _, alias := range mapping[field] {
		if v, ok := rec.attrs[strings.ToLower(alias)]; ok && v != "" {
			return v
		}
	}
	return ""
}
