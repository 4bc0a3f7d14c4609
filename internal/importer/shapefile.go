// Package importer loads water bodies from hydrography shapefiles into the
// local store.
package importer

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/akinsgre/paddlepartner-waterways/internal/store"
)

// Attribute names checked, in order, for each field the importer extracts.
// NHD shapefiles use gnis_name/gnis_id; state portals vary.
var (
	nameAttrs = []string{"gnis_name", "name", "fname", "wtrbdy_nam"}
	idAttrs   = []string{"permanent_identifier", "gnis_id", "comid", "reachcode"}
	typeAttrs = []string{"ftype", "fcode", "type"}
)

// nhdFTypes maps NHD feature type codes to display type tags.
var nhdFTypes = map[string]string{
	"336": "canal",
	"390": "lake",
	"436": "reservoir",
	"460": "river",
	"466": "marsh",
	"558": "river",
}

// Newer NHD deliveries spell the feature type out instead of coding it.
var nhdFTypeNames = map[string]string{
	"lakepond":       "lake",
	"streamriver":    "river",
	"swampmarsh":     "marsh",
	"canalditch":     "canal",
	"artificialpath": "river",
}

// ReadShapefile parses a hydrography shapefile into store rows. Records with
// no name attribute are skipped: an unnamed pond is not searchable.
func ReadShapefile(shpPath, source string) ([]store.WaterBody, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "importer: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}

	attr := func(names []string) func() string {
		idxs := make([]int, 0, len(names))
		for _, n := range names {
			if i, ok := fieldIdx[n]; ok {
				idxs = append(idxs, i)
			}
		}
		return func() string {
			for _, i := range idxs {
				v := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
				if v != "" {
					return v
				}
			}
			return ""
		}
	}
	nameOf, idOf, typeOf := attr(nameAttrs), attr(idAttrs), attr(typeAttrs)

	var bodies []store.WaterBody
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		name := nameOf()
		if name == "" {
			skipped++
			continue
		}

		g := geomFromShape(shape)
		if g == nil {
			skipped++
			continue
		}
		lat, lng := representativePoint(g)

		bodies = append(bodies, store.WaterBody{
			Name:      name,
			TypeTag:   typeTag(typeOf()),
			Latitude:  lat,
			Longitude: lng,
			Source:    source,
			SourceID:  idOf(),
		})
	}

	if skipped > 0 {
		zap.L().Debug("importer: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return bodies, nil
}

// typeTag translates an ftype/fcode attribute into a display tag. Numeric
// NHD codes map through nhdFTypes; textual values pass through lowercased.
func typeTag(raw string) string {
	if raw == "" {
		return ""
	}
	if _, err := strconv.Atoi(raw); err == nil {
		// FCodes are the FType with a two-digit subtype suffix.
		code := raw
		if len(code) == 5 {
			code = code[:3]
		}
		return nhdFTypes[code]
	}
	lowered := strings.ToLower(raw)
	if tag, ok := nhdFTypeNames[lowered]; ok {
		return tag
	}
	return lowered
}

// geomFromShape converts a go-shp geometry to a geom.T.
// Returns nil for unsupported or empty shapes.
func geomFromShape(shape shp.Shape) geom.T {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(4326)

	case *shp.PolyLine:
		return polyLineToMultiLineString(s)

	case *shp.Polygon:
		return polygonToMultiPolygon(s)

	default:
		return nil
	}
}

// representativePoint picks the access coordinate stored for a water body:
// the point itself, or the center of the geometry's bounding box for lines
// and polygons. Good enough for distance sorting at paddling scales.
func representativePoint(g geom.T) (lat, lng float64) {
	if p, ok := g.(*geom.Point); ok {
		return p.Y(), p.X()
	}
	b := g.Bounds()
	return (b.Min(1) + b.Max(1)) / 2, (b.Min(0) + b.Max(0)) / 2
}

func polyLineToMultiLineString(pl *shp.PolyLine) geom.T {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}

	mls := geom.NewMultiLineString(geom.XY).SetSRID(4326)

	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		var end int32
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		} else {
			end = int32(len(pl.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}

		ls := geom.NewLineStringFlat(geom.XY, flat)
		if err := mls.Push(ls); err != nil {
			zap.L().Debug("importer: skipping malformed linestring part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mls.NumLineStrings() == 0 {
		return nil
	}
	return mls
}

func polygonToMultiPolygon(p *shp.Polygon) geom.T {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY).SetSRID(4326)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("importer: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}

		if err := mp.Push(poly); err != nil {
			zap.L().Debug("importer: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
