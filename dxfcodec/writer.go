package dxfcodec

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// Write serializes the tag stream back to ASCII DXF.
func (doc *Document) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, t := range doc.Tags {
		if _, err := fmt.Fprintf(bw, "%3d\r\n%s\r\n", t.Code, t.Value); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// SaveAs rewrites the stored file in place.
func (doc *Document) SaveAs(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return doc.Write(f)
}

// SetGeodata replaces (or creates) the GEODATA object in the tag stream and
// on the parsed document.
func (doc *Document) SetGeodata(g *Geodata) {
	doc.Geodata = g
	fresh := g.geodataTags()

	// replace an existing record in place
	for i, t := range doc.Tags {
		if t.Code == 0 && t.Value == "GEODATA" {
			end := i + 1
			for end < len(doc.Tags) && doc.Tags[end].Code != 0 {
				end++
			}
			doc.Tags = spliceTags(doc.Tags, i, end, fresh)
			return
		}
	}

	// append into the OBJECTS section
	if at, ok := doc.sectionEnd("OBJECTS"); ok {
		doc.Tags = spliceTags(doc.Tags, at, at, fresh)
		return
	}

	// no OBJECTS section at all, create one before EOF
	section := append([]Tag{{0, "SECTION"}, {2, "OBJECTS"}}, fresh...)
	section = append(section, Tag{0, "ENDSEC"})
	at := len(doc.Tags)
	for i, t := range doc.Tags {
		if t.Code == 0 && t.Value == "EOF" {
			at = i
			break
		}
	}
	doc.Tags = spliceTags(doc.Tags, at, at, section)
}

// AppendEntity adds an entity record at the end of the ENTITIES section.
// Only the INSERT shape is needed by the download flow.
func (doc *Document) AppendEntity(e *Entity) {
	tags := []Tag{
		{0, e.Type},
		{8, e.Layer},
	}
	switch e.Type {
	case "INSERT":
		if len(e.Attribs) > 0 {
			tags = append(tags, Tag{66, "1"})
		}
		tags = append(tags,
			Tag{2, e.Name},
			Tag{10, formatFloat(e.Insert.X)},
			Tag{20, formatFloat(e.Insert.Y)},
			Tag{30, formatFloat(e.Insert.Z)},
			Tag{41, formatFloat(e.XScale)},
			Tag{42, formatFloat(e.YScale)},
			Tag{43, formatFloat(e.ZScale)},
			Tag{50, formatFloat(e.Rotation)},
		)
		for _, a := range e.Attribs {
			tags = append(tags,
				Tag{0, "ATTRIB"},
				Tag{8, e.Layer},
				Tag{10, formatFloat(e.Insert.X)},
				Tag{20, formatFloat(e.Insert.Y)},
				Tag{30, formatFloat(e.Insert.Z)},
				Tag{40, "1.0"},
				Tag{1, a.Text},
				Tag{2, a.Tag},
			)
		}
		if len(e.Attribs) > 0 {
			tags = append(tags, Tag{0, "SEQEND"})
		}
	default:
		return
	}
	if at, ok := doc.sectionEnd("ENTITIES"); ok {
		doc.Tags = spliceTags(doc.Tags, at, at, tags)
		doc.Entities = append(doc.Entities, e)
	}
}

// EnsureLayer appends a LAYER table record when the name is not present yet.
func (doc *Document) EnsureLayer(name string, rgb *[3]uint8) {
	if doc.QueryLayer(name) != nil {
		return
	}
	record := &LayerRecord{Name: name, ACI: 7, TrueColor: rgb, Linetype: "Continuous"}
	tags := []Tag{
		{0, "LAYER"},
		{100, "AcDbSymbolTableRecord"},
		{100, "AcDbLayerTableRecord"},
		{2, name},
		{70, "0"},
		{62, "7"},
		{6, "Continuous"},
	}
	if rgb != nil {
		rgb24 := int(rgb[0])<<16 | int(rgb[1])<<8 | int(rgb[2])
		tags = append(tags, Tag{420, fmt.Sprintf("%d", rgb24)})
	}
	at, ok := doc.tableEnd("LAYER")
	if !ok {
		return
	}
	doc.Tags = spliceTags(doc.Tags, at, at, tags)
	doc.Layers = append(doc.Layers, record)
}

// sectionEnd locates the ENDSEC tag index of a named section.
func (doc *Document) sectionEnd(name string) (int, bool) {
	for i := 0; i < len(doc.Tags)-1; i++ {
		if doc.Tags[i].Code == 0 && doc.Tags[i].Value == "SECTION" &&
			doc.Tags[i+1].Code == 2 && doc.Tags[i+1].Value == name {
			end := findEndsec(doc.Tags, i+2)
			if end < len(doc.Tags) {
				return end, true
			}
			return 0, false
		}
	}
	return 0, false
}

// tableEnd locates the ENDTAB index of a named table in the TABLES section.
func (doc *Document) tableEnd(name string) (int, bool) {
	inTable := false
	for i := 0; i < len(doc.Tags)-1; i++ {
		t := doc.Tags[i]
		if t.Code == 0 && t.Value == "TABLE" && doc.Tags[i+1].Code == 2 {
			inTable = doc.Tags[i+1].Value == name
		}
		if inTable && t.Code == 0 && t.Value == "ENDTAB" {
			return i, true
		}
	}
	return 0, false
}

func spliceTags(tags []Tag, from, to int, insert []Tag) []Tag {
	out := make([]Tag, 0, len(tags)-(to-from)+len(insert))
	out = append(out, tags[:from]...)
	out = append(out, insert...)
	out = append(out, tags[to:]...)
	return out
}
