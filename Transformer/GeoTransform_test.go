package Transformer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/GrainArc/GeoCAD/models"
)

func TestRotationFromNorth(t *testing.T) {
	// straight north means zero rotation
	assert.InDelta(t, 0.0, RotationFromNorth(0, 1), 1e-12)
	// the north vector tilted towards +x is a positive bearing
	assert.InDelta(t, 90.0, RotationFromNorth(1, 0), 1e-12)
	assert.InDelta(t, 45.0, RotationFromNorth(1, 1), 1e-12)
	assert.InDelta(t, -90.0, RotationFromNorth(-1, 0), 1e-12)
}

func TestNorthRotationRoundTrip(t *testing.T) {
	for _, deg := range []float64{0, 10, 45, 90, -30, 179} {
		rad := deg * math.Pi / 180
		nx, ny := NorthFromRotation(rad)
		assert.InDelta(t, deg, RotationFromNorth(nx, ny), 1e-9)
	}
}

func TestGeoTransformRoundTrip(t *testing.T) {
	gt := GeoTransform{
		RefX:    251535.08,
		RefY:    4654130.89,
		DesignX: 100.0,
		DesignY: 200.0,
		Rot:     30 * math.Pi / 180,
	}
	cx, cy := gt.WCSToCRS(150.0, 275.0)
	x, y := gt.CRSToWCS(cx, cy)
	assert.InDelta(t, 150.0, x, 1e-9)
	assert.InDelta(t, 275.0, y, 1e-9)

	// the design point always maps onto the reference point
	cx, cy = gt.WCSToCRS(100.0, 200.0)
	assert.InDelta(t, gt.RefX, cx, 1e-9)
	assert.InDelta(t, gt.RefY, cy, 1e-9)
}

func TestFromGeodataRotation(t *testing.T) {
	g := &dxfcodec.Geodata{
		ReferencePoint: dxfcodec.Point3{X: 1000, Y: 2000},
		NorthDirection: [2]float64{math.Sin(math.Pi / 6), math.Cos(math.Pi / 6)},
	}
	gt := FromGeodata(g)
	assert.InDelta(t, math.Pi/6, gt.Rot, 1e-12)

	// a unit step along local north must land due north of the reference
	cx, cy := gt.WCSToCRS(math.Sin(math.Pi/6), math.Cos(math.Pi/6))
	assert.InDelta(t, 1000.0, cx, 1e-9)
	assert.InDelta(t, 2001.0, cy, 1e-9)
}

func TestPrepareTransformers(t *testing.T) {
	epsg := 32633
	d := &models.Drawing{EPSG: &epsg, Rotation: 90}
	d.SetGeomPoint(12.0, 42.0)
	transforms, err := PrepareTransformers(d)
	require.NoError(t, err)
	assert.Equal(t, 32633, transforms.Proj.EPSG())
	assert.InDelta(t, math.Pi/2, transforms.Rot, 1e-12)
	assert.InDelta(t, 251535.0, transforms.UTMWCS[0], 50.0)

	d.EPSG = nil
	_, err = PrepareTransformers(d)
	assert.ErrorIs(t, err, ErrNoProjection)

	d.EPSG = &epsg
	d.Geom = nil
	_, err = PrepareTransformers(d)
	assert.ErrorIs(t, err, ErrNoOrigin)
}

func TestFakeGeodata(t *testing.T) {
	epsg := 32633
	d := &models.Drawing{EPSG: &epsg, DesignX: 10, DesignY: 20, Rotation: 45}
	d.SetGeomPoint(12.0, 42.0)
	transforms, err := PrepareTransformers(d)
	require.NoError(t, err)

	doc := dxfcodec.New()
	g := transforms.FakeGeodata(doc, d)
	require.NotNil(t, doc.Geodata)
	assert.Equal(t, 10.0, g.DesignPoint.X)
	assert.InDelta(t, math.Sin(math.Pi/4), g.NorthDirection[0], 1e-12)

	code, axis, err := g.CRS()
	require.NoError(t, err)
	assert.True(t, axis)
	assert.Equal(t, 32633, code)
}
