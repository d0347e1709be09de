package Transformer

import (
	"errors"
	"math"

	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/GrainArc/GeoCAD/models"
)

// GeoTransform is the affine between the drawing's WCS and its projected
// CRS: crs = ref + R(rot)·(wcs − design). Rot is in radians.
type GeoTransform struct {
	RefX    float64
	RefY    float64
	DesignX float64
	DesignY float64
	Rot     float64
}

func (g GeoTransform) WCSToCRS(x, y float64) (cx, cy float64) {
	dx := x - g.DesignX
	dy := y - g.DesignY
	sinR, cosR := math.Sin(g.Rot), math.Cos(g.Rot)
	return g.RefX + dx*cosR - dy*sinR, g.RefY + dx*sinR + dy*cosR
}

func (g GeoTransform) CRSToWCS(cx, cy float64) (x, y float64) {
	dx := cx - g.RefX
	dy := cy - g.RefY
	sinR, cosR := math.Sin(-g.Rot), math.Cos(-g.Rot)
	return g.DesignX + dx*cosR - dy*sinR, g.DesignY + dx*sinR + dy*cosR
}

// FromGeodata derives the transform exactly as the resolver reads rotation:
// bearing from true north, atan2 over (north_x, north_y).
func FromGeodata(g *dxfcodec.Geodata) GeoTransform {
	return GeoTransform{
		RefX:    g.ReferencePoint.X,
		RefY:    g.ReferencePoint.Y,
		DesignX: g.DesignPoint.X,
		DesignY: g.DesignPoint.Y,
		Rot:     math.Atan2(g.NorthDirection[0], g.NorthDirection[1]),
	}
}

// RotationFromNorth converts a geodata north vector to degrees. The swapped
// atan2 argument order is the bearing convention, not a typo.
func RotationFromNorth(nx, ny float64) float64 {
	return math.Atan2(nx, ny) * 180 / math.Pi
}

// NorthFromRotation is the exact inverse used when faking geodata.
func NorthFromRotation(rot float64) (nx, ny float64) {
	return math.Sin(rot), math.Cos(rot)
}

var ErrNoProjection = errors.New("unsupported EPSG code")
var ErrNoOrigin = errors.New("drawing has no origin point")

// Transforms bundles everything extraction needs: the projection pair, the
// anchor projected into local units and the rotation in radians.
type Transforms struct {
	Proj   Projection
	UTMWCS [2]float64
	Rot    float64
}

// PrepareTransformers builds the drawing's projections and anchor. The
// anchor is the real-world CRS coordinate of the DXF design point.
func PrepareTransformers(d *models.Drawing) (*Transforms, error) {
	if d.EPSG == nil {
		return nil, ErrNoProjection
	}
	proj := ForEPSG(*d.EPSG)
	if proj == nil {
		return nil, ErrNoProjection
	}
	point, ok := d.GeomPoint()
	if !ok {
		return nil, ErrNoOrigin
	}
	x, y := proj.FromWGS84(point[0], point[1])
	return &Transforms{
		Proj:   proj,
		UTMWCS: [2]float64{x, y},
		Rot:    d.Rotation * math.Pi / 180,
	}, nil
}

// GeoTransform assembles the WCS<->CRS affine from the prepared anchor and
// the drawing's design point offset.
func (t *Transforms) GeoTransform(d *models.Drawing) GeoTransform {
	return GeoTransform{
		RefX:    t.UTMWCS[0],
		RefY:    t.UTMWCS[1],
		DesignX: d.DesignX,
		DesignY: d.DesignY,
		Rot:     t.Rot,
	}
}

// FakeGeodata overwrites the document geodata with the drawing's current
// anchor, design point and north direction.
func (t *Transforms) FakeGeodata(doc *dxfcodec.Document, d *models.Drawing) *dxfcodec.Geodata {
	nx, ny := NorthFromRotation(t.Rot)
	geodata := &dxfcodec.Geodata{
		DesignPoint:                dxfcodec.Point3{X: d.DesignX, Y: d.DesignY},
		ReferencePoint:             dxfcodec.Point3{X: t.UTMWCS[0], Y: t.UTMWCS[1]},
		NorthDirection:             [2]float64{nx, ny},
		CoordinateSystemDefinition: dxfcodec.EPSGDictionaryXML(*d.EPSG),
	}
	doc.SetGeodata(geodata)
	return geodata
}
