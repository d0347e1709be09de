package Transformer

import (
	"math"

	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/paulmach/orb"
)

const (
	tolerance   = 1e-9 // coordinate comparison tolerance in drawing units
	arcSegments = 32
)

func pointsEqual(p1, p2 orb.Point) bool {
	return math.Abs(p1[0]-p2[0]) < tolerance && math.Abs(p1[1]-p2[1]) < tolerance
}

func closeRing(coords []orb.Point) orb.Ring {
	ring := orb.Ring(coords)
	if len(ring) > 0 && !pointsEqual(ring[0], ring[len(ring)-1]) {
		ring = append(append(orb.Ring{}, ring...), ring[0])
	}
	return ring
}

// localGeometry flattens one DXF entity into planar geometry in drawing
// units. The bool is false for entity shapes that carry no usable geometry.
func localGeometry(e *dxfcodec.Entity) (orb.Geometry, bool) {
	switch e.Type {
	case "POINT":
		if len(e.Points) == 0 {
			return nil, false
		}
		return orb.Point{e.Points[0].X, e.Points[0].Y}, true
	case "LINE":
		if len(e.Points) < 2 {
			return nil, false
		}
		return lineString(e.Points), true
	case "LWPOLYLINE", "POLYLINE":
		if len(e.Points) < 2 {
			return nil, false
		}
		if e.Closed && len(e.Points) >= 3 {
			return orb.Polygon{closeRing(projectPoints(e.Points))}, true
		}
		return lineString(e.Points), true
	case "3DFACE":
		if len(e.Points) < 3 {
			return nil, false
		}
		return orb.Polygon{closeRing(projectPoints(e.Points))}, true
	case "CIRCLE":
		if e.Radius <= 0 {
			return nil, false
		}
		return orb.Polygon{circleRing(e.Center, e.Radius)}, true
	case "ARC":
		if e.Radius <= 0 {
			return nil, false
		}
		return arcString(e), true
	case "ELLIPSE":
		return ellipseGeometry(e)
	case "SPLINE":
		points := e.FitPoints
		if len(points) == 0 {
			points = e.Points
		}
		if len(points) < 2 {
			return nil, false
		}
		if e.Closed && len(points) >= 3 {
			return orb.Polygon{closeRing(projectPoints(points))}, true
		}
		return lineString(points), true
	case "HATCH":
		if len(e.Rings) == 0 {
			return nil, false
		}
		polygon := orb.Polygon{}
		for _, ring := range e.Rings {
			polygon = append(polygon, closeRing(projectPoints(ring)))
		}
		return polygon, true
	}
	return nil, false
}

func projectPoints(points []dxfcodec.Point3) []orb.Point {
	out := make([]orb.Point, len(points))
	for i, p := range points {
		out[i] = orb.Point{p.X, p.Y}
	}
	return out
}

func lineString(points []dxfcodec.Point3) orb.LineString {
	return orb.LineString(projectPoints(points))
}

func circleRing(center dxfcodec.Point3, radius float64) orb.Ring {
	ring := make(orb.Ring, arcSegments+1)
	for i := 0; i <= arcSegments; i++ {
		angle := 2 * math.Pi * float64(i) / arcSegments
		ring[i] = orb.Point{center.X + radius*math.Cos(angle), center.Y + radius*math.Sin(angle)}
	}
	ring[arcSegments] = ring[0]
	return ring
}

func arcString(e *dxfcodec.Entity) orb.LineString {
	start := e.StartAngle * math.Pi / 180
	end := e.EndAngle * math.Pi / 180
	for end <= start {
		end += 2 * math.Pi
	}
	line := make(orb.LineString, arcSegments+1)
	for i := 0; i <= arcSegments; i++ {
		angle := start + (end-start)*float64(i)/arcSegments
		line[i] = orb.Point{e.Center.X + e.Radius*math.Cos(angle), e.Center.Y + e.Radius*math.Sin(angle)}
	}
	return line
}

func ellipseGeometry(e *dxfcodec.Entity) (orb.Geometry, bool) {
	major := math.Hypot(e.Major.X, e.Major.Y)
	if major <= 0 || e.Ratio <= 0 {
		return nil, false
	}
	minor := major * e.Ratio
	axisRot := math.Atan2(e.Major.Y, e.Major.X)
	sinA, cosA := math.Sin(axisRot), math.Cos(axisRot)
	start, end := e.StartParam, e.EndParam
	for end <= start {
		end += 2 * math.Pi
	}
	full := math.Abs(end-start-2*math.Pi) < 1e-9
	points := make([]orb.Point, arcSegments+1)
	for i := 0; i <= arcSegments; i++ {
		t := start + (end-start)*float64(i)/arcSegments
		x := major * math.Cos(t)
		y := minor * math.Sin(t)
		points[i] = orb.Point{
			e.Center.X + x*cosA - y*sinA,
			e.Center.Y + x*sinA + y*cosA,
		}
	}
	if full {
		points[arcSegments] = points[0]
		return orb.Polygon{orb.Ring(points)}, true
	}
	return orb.LineString(points), true
}

// ringSimple rejects self-intersecting rings: no two non-adjacent segments
// may cross.
func ringSimple(ring orb.Ring) bool {
	n := len(ring) - 1
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		for j := i + 2; j < n; j++ {
			if i == 0 && j == n-1 {
				continue
			}
			if segmentsIntersect(ring[i], ring[i+1], ring[j], ring[j+1]) {
				return false
			}
		}
	}
	return true
}

func segmentsIntersect(a, b, c, d orb.Point) bool {
	d1 := cross(c, d, a)
	d2 := cross(c, d, b)
	d3 := cross(a, b, c)
	d4 := cross(a, b, d)
	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}
	return false
}

func cross(a, b, p orb.Point) float64 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// PolygonValid is the planar validity predicate applied before an extracted
// polygon may be persisted: simple, non-degenerate exterior ring.
func PolygonValid(polygon orb.Polygon) bool {
	if len(polygon) == 0 {
		return false
	}
	exterior := polygon[0]
	if len(exterior) < 4 || !ringSimple(exterior) {
		return false
	}
	return ringArea(exterior) > 0
}

func ringArea(ring orb.Ring) float64 {
	area := 0.0
	for i := 0; i < len(ring)-1; i++ {
		area += ring[i][0]*ring[i+1][1] - ring[i+1][0]*ring[i][1]
	}
	return math.Abs(area) / 2
}

// EntityGeometry converts one DXF entity to WGS84. Polylines whose closed
// ring turns out malformed are demoted to line geometry so the caller can
// still fold them into the layer aggregate; other invalid polygons are
// dropped outright.
func EntityGeometry(e *dxfcodec.Entity, gt GeoTransform, proj Projection) (orb.Geometry, bool) {
	local, ok := localGeometry(e)
	if !ok {
		return nil, false
	}
	if polygon, isPolygon := local.(orb.Polygon); isPolygon && !PolygonValid(polygon) {
		switch e.Type {
		case "LWPOLYLINE", "POLYLINE", "SPLINE":
			local = orb.LineString(polygon[0])
		default:
			return nil, false
		}
	}
	toWorld := func(p orb.Point) orb.Point {
		cx, cy := gt.WCSToCRS(p[0], p[1])
		lon, lat := proj.ToWGS84(cx, cy)
		return orb.Point{lon, lat}
	}
	switch geom := local.(type) {
	case orb.Point:
		return toWorld(geom), true
	case orb.LineString:
		out := make(orb.LineString, len(geom))
		for i, p := range geom {
			out[i] = toWorld(p)
		}
		return out, true
	case orb.Polygon:
		out := make(orb.Polygon, len(geom))
		for i, ring := range geom {
			newRing := make(orb.Ring, len(ring))
			for j, p := range ring {
				newRing[j] = toWorld(p)
			}
			out[i] = newRing
		}
		return out, true
	}
	return nil, false
}

// LocalPolygon interprets a polyline as a closed planar polygon in drawing
// units, the shape used for classification, metrics and text containment.
func LocalPolygon(e *dxfcodec.Entity) (orb.Polygon, bool) {
	if e.Type != "LWPOLYLINE" && e.Type != "POLYLINE" {
		return nil, false
	}
	if !e.Closed || len(e.Points) < 3 {
		return nil, false
	}
	polygon := orb.Polygon{closeRing(projectPoints(e.Points))}
	if !PolygonValid(polygon) {
		return nil, false
	}
	return polygon, true
}
