package dxfcodec

// Convertible entity types, in the fixed order extraction walks them.
var EntityTypes = []string{
	"POINT",
	"LINE",
	"LWPOLYLINE",
	"POLYLINE",
	"3DFACE",
	"CIRCLE",
	"ARC",
	"ELLIPSE",
	"SPLINE",
	"HATCH",
}

// TEXT overrides MTEXT
var TextTypes = []string{
	"MTEXT",
	"TEXT",
}

type Point3 struct {
	X, Y, Z float64
}

type Attrib struct {
	Tag  string
	Text string
}

// Entity is the parsed form of one DXF entity. A single struct covers every
// convertible type; which fields are meaningful depends on Type.
type Entity struct {
	Type       string
	Layer      string
	Points     []Point3
	FitPoints  []Point3
	Rings      [][]Point3
	Closed     bool
	Thickness  float64
	ConstWidth float64
	Elevation  float64

	Center     Point3
	Radius     float64
	StartAngle float64
	EndAngle   float64

	Major      Point3
	Ratio      float64
	StartParam float64
	EndParam   float64

	Text   string
	Insert Point3

	Name     string
	XScale   float64
	YScale   float64
	ZScale   float64
	Rotation float64
	Attribs  []Attrib
}

func newEntity(etype string) *Entity {
	return &Entity{
		Type:   etype,
		Layer:  "0",
		XScale: 1,
		YScale: 1,
		ZScale: 1,
		Ratio:  1,
	}
}

func isKnownEntity(etype string) bool {
	switch etype {
	case "POINT", "LINE", "LWPOLYLINE", "POLYLINE", "3DFACE",
		"CIRCLE", "ARC", "ELLIPSE", "SPLINE", "HATCH",
		"TEXT", "MTEXT", "INSERT":
		return true
	}
	return false
}

// parseEntityRun fills an entity from the tag run between its 0 tag and the
// next 0 tag. Sub-entity records (VERTEX, ATTRIB, SEQEND) are handled by the
// section walker, not here.
func parseEntityRun(etype string, run []Tag) *Entity {
	e := newEntity(etype)
	switch etype {
	case "POINT":
		parsePoint(e, run)
	case "LINE":
		parseLine(e, run)
	case "LWPOLYLINE":
		parseLWPolyline(e, run)
	case "POLYLINE":
		parsePolylineHeader(e, run)
	case "3DFACE":
		parse3DFace(e, run)
	case "CIRCLE", "ARC":
		parseCircular(e, run)
	case "ELLIPSE":
		parseEllipse(e, run)
	case "SPLINE":
		parseSpline(e, run)
	case "HATCH":
		parseHatch(e, run)
	case "TEXT", "MTEXT":
		parseText(e, run)
	case "INSERT":
		parseInsertHeader(e, run)
	}
	return e
}

func parsePoint(e *Entity, run []Tag) {
	p := Point3{}
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 10:
			p.X = t.Float()
		case 20:
			p.Y = t.Float()
		case 30:
			p.Z = t.Float()
		case 39:
			e.Thickness = t.Float()
		}
	}
	e.Points = []Point3{p}
}

func parseLine(e *Entity, run []Tag) {
	var start, end Point3
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 10:
			start.X = t.Float()
		case 20:
			start.Y = t.Float()
		case 30:
			start.Z = t.Float()
		case 11:
			end.X = t.Float()
		case 21:
			end.Y = t.Float()
		case 31:
			end.Z = t.Float()
		case 39:
			e.Thickness = t.Float()
		}
	}
	e.Points = []Point3{start, end}
}

func parseLWPolyline(e *Entity, run []Tag) {
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 70:
			e.Closed = t.Int()&1 != 0
		case 43:
			e.ConstWidth = t.Float()
		case 38:
			e.Elevation = t.Float()
		case 39:
			e.Thickness = t.Float()
		case 10:
			e.Points = append(e.Points, Point3{X: t.Float()})
		case 20:
			if len(e.Points) > 0 {
				e.Points[len(e.Points)-1].Y = t.Float()
			}
		}
	}
}

func parsePolylineHeader(e *Entity, run []Tag) {
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 70:
			e.Closed = t.Int()&1 != 0
		case 40:
			e.ConstWidth = t.Float()
		case 39:
			e.Thickness = t.Float()
		case 30:
			e.Elevation = t.Float()
		}
	}
}

func parseVertex(e *Entity, run []Tag) {
	p := Point3{}
	for _, t := range run {
		switch t.Code {
		case 10:
			p.X = t.Float()
		case 20:
			p.Y = t.Float()
		case 30:
			p.Z = t.Float()
		}
	}
	e.Points = append(e.Points, p)
}

func parse3DFace(e *Entity, run []Tag) {
	corners := make([]Point3, 4)
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 10, 11, 12, 13:
			corners[t.Code-10].X = t.Float()
		case 20, 21, 22, 23:
			corners[t.Code-20].Y = t.Float()
		case 30, 31, 32, 33:
			corners[t.Code-30].Z = t.Float()
		}
	}
	// fourth corner equals third on triangular faces
	if corners[3] == corners[2] {
		corners = corners[:3]
	}
	e.Points = corners
}

func parseCircular(e *Entity, run []Tag) {
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 10:
			e.Center.X = t.Float()
		case 20:
			e.Center.Y = t.Float()
		case 30:
			e.Center.Z = t.Float()
		case 40:
			e.Radius = t.Float()
		case 50:
			e.StartAngle = t.Float()
		case 51:
			e.EndAngle = t.Float()
		case 39:
			e.Thickness = t.Float()
		}
	}
}

func parseEllipse(e *Entity, run []Tag) {
	e.EndParam = 6.283185307179586
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 10:
			e.Center.X = t.Float()
		case 20:
			e.Center.Y = t.Float()
		case 30:
			e.Center.Z = t.Float()
		case 11:
			e.Major.X = t.Float()
		case 21:
			e.Major.Y = t.Float()
		case 31:
			e.Major.Z = t.Float()
		case 40:
			e.Ratio = t.Float()
		case 41:
			e.StartParam = t.Float()
		case 42:
			e.EndParam = t.Float()
		}
	}
}

func parseSpline(e *Entity, run []Tag) {
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 70:
			e.Closed = t.Int()&1 != 0
		case 10:
			e.Points = append(e.Points, Point3{X: t.Float()})
		case 20:
			if len(e.Points) > 0 {
				e.Points[len(e.Points)-1].Y = t.Float()
			}
		case 30:
			if len(e.Points) > 0 {
				e.Points[len(e.Points)-1].Z = t.Float()
			}
		case 11:
			e.FitPoints = append(e.FitPoints, Point3{X: t.Float()})
		case 21:
			if len(e.FitPoints) > 0 {
				e.FitPoints[len(e.FitPoints)-1].Y = t.Float()
			}
		case 31:
			if len(e.FitPoints) > 0 {
				e.FitPoints[len(e.FitPoints)-1].Z = t.Float()
			}
		}
	}
}

func parseHatch(e *Entity, run []Tag) {
	var ring []Point3
	inBoundary := false
	flush := func() {
		if len(ring) >= 3 {
			e.Rings = append(e.Rings, ring)
		}
		ring = nil
	}
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 92:
			flush()
			inBoundary = true
		case 75, 98:
			// hatch style / seed point count end the boundary data
			flush()
			inBoundary = false
		case 10:
			if inBoundary {
				ring = append(ring, Point3{X: t.Float()})
			}
		case 20:
			if inBoundary && len(ring) > 0 {
				ring[len(ring)-1].Y = t.Float()
			}
		case 11:
			if inBoundary && len(ring) > 0 {
				// line edge end point
				ring = append(ring, Point3{X: t.Float()})
			}
		case 21:
			if inBoundary && len(ring) > 0 {
				ring[len(ring)-1].Y = t.Float()
			}
		}
	}
	flush()
	e.Closed = true
}

func parseText(e *Entity, run []Tag) {
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 10:
			e.Insert.X = t.Float()
		case 20:
			e.Insert.Y = t.Float()
		case 30:
			e.Insert.Z = t.Float()
		case 1:
			e.Text += t.Value
		case 3:
			// MTEXT continuation chunks precede the final group 1
			e.Text += t.Value
		}
	}
}

func parseInsertHeader(e *Entity, run []Tag) {
	for _, t := range run {
		switch t.Code {
		case 8:
			e.Layer = t.Value
		case 2:
			e.Name = t.Value
		case 10:
			e.Insert.X = t.Float()
		case 20:
			e.Insert.Y = t.Float()
		case 30:
			e.Insert.Z = t.Float()
		case 41:
			e.XScale = t.Float()
		case 42:
			e.YScale = t.Float()
		case 43:
			e.ZScale = t.Float()
		case 50:
			e.Rotation = t.Float()
		}
	}
}

func parseAttrib(run []Tag) Attrib {
	var a Attrib
	for _, t := range run {
		switch t.Code {
		case 2:
			a.Tag = t.Value
		case 1:
			a.Text = t.Value
		}
	}
	return a
}
