package dxfcodec

import "math"

// New builds an empty in-memory document. Used when insertion geometry is
// replayed without touching the stored file.
func New() *Document {
	return &Document{
		Tags: []Tag{
			{0, "SECTION"},
			{2, "ENTITIES"},
			{0, "ENDSEC"},
			{0, "EOF"},
		},
	}
}

// NewBlock registers an in-memory block definition.
func (doc *Document) NewBlock(name string, base Point3) *Block {
	block := &Block{Name: name, Base: base}
	doc.Blocks = append(doc.Blocks, block)
	return block
}

// VirtualEntities explodes a block reference into its transformed entities.
// The result is a materialized slice, by contract never a lazy sequence, so
// callers can iterate it repeatedly.
func VirtualEntities(ins *Entity, block *Block) []*Entity {
	if block == nil || ins.Type != "INSERT" {
		return nil
	}
	rot := ins.Rotation * math.Pi / 180
	sinR, cosR := math.Sin(rot), math.Cos(rot)
	xform := func(p Point3) Point3 {
		x := (p.X - block.Base.X) * ins.XScale
		y := (p.Y - block.Base.Y) * ins.YScale
		return Point3{
			X: ins.Insert.X + x*cosR - y*sinR,
			Y: ins.Insert.Y + x*sinR + y*cosR,
			Z: ins.Insert.Z + (p.Z-block.Base.Z)*ins.ZScale,
		}
	}
	out := make([]*Entity, 0, len(block.Items))
	for _, src := range block.Items {
		e := *src
		e.Layer = ins.Layer
		e.Points = transformPoints(src.Points, xform)
		e.FitPoints = transformPoints(src.FitPoints, xform)
		if len(src.Rings) > 0 {
			e.Rings = make([][]Point3, len(src.Rings))
			for i, ring := range src.Rings {
				e.Rings[i] = transformPoints(ring, xform)
			}
		}
		e.Center = xform(src.Center)
		e.Insert = xform(src.Insert)
		// non-uniform scale on circular entities is approximated by x scale
		e.Radius = src.Radius * math.Abs(ins.XScale)
		e.Major = Point3{
			X: src.Major.X*ins.XScale*cosR - src.Major.Y*ins.YScale*sinR,
			Y: src.Major.X*ins.XScale*sinR + src.Major.Y*ins.YScale*cosR,
		}
		if src.Type == "ARC" {
			e.StartAngle = src.StartAngle + ins.Rotation
			e.EndAngle = src.EndAngle + ins.Rotation
		}
		out = append(out, &e)
	}
	return out
}

func transformPoints(points []Point3, xform func(Point3) Point3) []Point3 {
	if points == nil {
		return nil
	}
	out := make([]Point3, len(points))
	for i, p := range points {
		out[i] = xform(p)
	}
	return out
}
