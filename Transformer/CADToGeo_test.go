package Transformer

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrainArc/GeoCAD/dxfcodec"
)

func square(size float64) []dxfcodec.Point3 {
	return []dxfcodec.Point3{
		{X: 0, Y: 0}, {X: size, Y: 0}, {X: size, Y: size}, {X: 0, Y: size},
	}
}

func TestLocalPolygonClosedSquare(t *testing.T) {
	e := &dxfcodec.Entity{Type: "LWPOLYLINE", Points: square(10), Closed: true}
	polygon, ok := LocalPolygon(e)
	require.True(t, ok)
	require.Len(t, polygon, 1)
	// the ring comes back closed
	assert.Equal(t, polygon[0][0], polygon[0][len(polygon[0])-1])
}

func TestLocalPolygonRejectsOpen(t *testing.T) {
	e := &dxfcodec.Entity{Type: "LWPOLYLINE", Points: square(10)}
	_, ok := LocalPolygon(e)
	assert.False(t, ok)
}

func TestLocalPolygonRejectsBowtie(t *testing.T) {
	e := &dxfcodec.Entity{
		Type:   "LWPOLYLINE",
		Closed: true,
		Points: []dxfcodec.Point3{
			{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
		},
	}
	_, ok := LocalPolygon(e)
	assert.False(t, ok)
}

func TestLocalPolygonRejectsDegenerate(t *testing.T) {
	e := &dxfcodec.Entity{
		Type:   "LWPOLYLINE",
		Closed: true,
		Points: []dxfcodec.Point3{{X: 0, Y: 0}, {X: 5, Y: 5}, {X: 10, Y: 10}},
	}
	_, ok := LocalPolygon(e)
	assert.False(t, ok)
}

func TestLocalPolygonOtherTypes(t *testing.T) {
	e := &dxfcodec.Entity{Type: "CIRCLE", Center: dxfcodec.Point3{}, Radius: 5}
	_, ok := LocalPolygon(e)
	assert.False(t, ok)
}

func identityTransforms() (GeoTransform, Projection) {
	return GeoTransform{}, WGS84Identity{}
}

func TestEntityGeometryDemotesBowtie(t *testing.T) {
	gt, proj := identityTransforms()
	e := &dxfcodec.Entity{
		Type:   "LWPOLYLINE",
		Closed: true,
		Points: []dxfcodec.Point3{
			{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
		},
	}
	geom, ok := EntityGeometry(e, gt, proj)
	require.True(t, ok)
	_, isLine := geom.(orb.LineString)
	assert.True(t, isLine)
}

func TestEntityGeometryCircle(t *testing.T) {
	gt, proj := identityTransforms()
	e := &dxfcodec.Entity{Type: "CIRCLE", Center: dxfcodec.Point3{X: 5, Y: 5}, Radius: 2}
	geom, ok := EntityGeometry(e, gt, proj)
	require.True(t, ok)
	polygon, isPolygon := geom.(orb.Polygon)
	require.True(t, isPolygon)
	assert.GreaterOrEqual(t, len(polygon[0]), 33)
}

func TestEntityGeometryZeroRadius(t *testing.T) {
	gt, proj := identityTransforms()
	e := &dxfcodec.Entity{Type: "CIRCLE"}
	_, ok := EntityGeometry(e, gt, proj)
	assert.False(t, ok)
}

func TestEntityGeometryAppliesTransform(t *testing.T) {
	gt := GeoTransform{RefX: 100, RefY: 200}
	e := &dxfcodec.Entity{Type: "POINT", Points: []dxfcodec.Point3{{X: 1, Y: 2}}}
	geom, ok := EntityGeometry(e, gt, WGS84Identity{})
	require.True(t, ok)
	point := geom.(orb.Point)
	assert.InDelta(t, 101.0, point[0], 1e-9)
	assert.InDelta(t, 202.0, point[1], 1e-9)
}

func TestEntityGeometrySplineFallsBackToControlPoints(t *testing.T) {
	gt, proj := identityTransforms()
	e := &dxfcodec.Entity{
		Type:   "SPLINE",
		Points: []dxfcodec.Point3{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}},
	}
	geom, ok := EntityGeometry(e, gt, proj)
	require.True(t, ok)
	line, isLine := geom.(orb.LineString)
	require.True(t, isLine)
	assert.Len(t, line, 3)
}
