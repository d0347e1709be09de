package dxfcodec

import (
	"io"
	"os"
	"strings"
)

// LayerRecord is one entry of the LAYER table.
type LayerRecord struct {
	Name      string
	ACI       int
	TrueColor *[3]uint8
	Linetype  string
}

// Continuous reports the linetype flag stored on extracted layers.
func (l *LayerRecord) Continuous() bool {
	return l.Linetype == "" || strings.EqualFold(l.Linetype, "Continuous")
}

// Block is a named block definition with its base point and entities.
type Block struct {
	Name  string
	Base  Point3
	Items []*Entity
}

// Document is a parsed DXF file. The raw tag stream is retained so the file
// can be serialized back without dropping content outside the parsed model.
type Document struct {
	Tags     []Tag
	Codepage string
	Layers   []*LayerRecord
	Blocks   []*Block
	Entities []*Entity
	Geodata  *Geodata
}

func Parse(r io.Reader) (*Document, error) {
	tags, err := ReadTags(r)
	if err != nil {
		return nil, err
	}
	doc := &Document{Tags: tags}
	i := 0
	for i < len(tags) {
		if tags[i].Code == 0 && tags[i].Value == "SECTION" && i+1 < len(tags) && tags[i+1].Code == 2 {
			name := tags[i+1].Value
			end := findEndsec(tags, i+2)
			switch name {
			case "HEADER":
				doc.parseHeader(tags[i+2 : end])
			case "TABLES":
				doc.parseTables(tags[i+2 : end])
			case "BLOCKS":
				doc.parseBlocks(tags[i+2 : end])
			case "ENTITIES":
				doc.Entities = parseEntitySpace(tags[i+2 : end])
			case "OBJECTS":
				doc.parseObjects(tags[i+2 : end])
			}
			i = end + 1
			continue
		}
		i++
	}
	doc.decodeText()
	return doc, nil
}

func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

func findEndsec(tags []Tag, from int) int {
	for i := from; i < len(tags); i++ {
		if tags[i].Code == 0 && tags[i].Value == "ENDSEC" {
			return i
		}
	}
	return len(tags)
}

func (doc *Document) parseHeader(tags []Tag) {
	for i := 0; i < len(tags)-1; i++ {
		if tags[i].Code == 9 && tags[i].Value == "$DWGCODEPAGE" {
			doc.Codepage = tags[i+1].Value
		}
	}
}

func (doc *Document) parseTables(tags []Tag) {
	var current *LayerRecord
	for i := 0; i < len(tags); i++ {
		t := tags[i]
		if t.Code == 0 {
			if current != nil {
				doc.Layers = append(doc.Layers, current)
				current = nil
			}
			if t.Value == "LAYER" {
				current = &LayerRecord{ACI: 7}
			}
			continue
		}
		if current == nil {
			continue
		}
		switch t.Code {
		case 2:
			current.Name = t.Value
		case 62:
			current.ACI = t.Int()
		case 420:
			rgb24 := t.Int()
			current.TrueColor = &[3]uint8{
				uint8(rgb24 >> 16 & 0xFF),
				uint8(rgb24 >> 8 & 0xFF),
				uint8(rgb24 & 0xFF),
			}
		case 6:
			current.Linetype = t.Value
		}
	}
	if current != nil {
		doc.Layers = append(doc.Layers, current)
	}
}

func (doc *Document) parseBlocks(tags []Tag) {
	i := 0
	for i < len(tags) {
		if tags[i].Code == 0 && tags[i].Value == "BLOCK" {
			end := i + 1
			for end < len(tags) && !(tags[end].Code == 0 && tags[end].Value == "ENDBLK") {
				end++
			}
			block := &Block{}
			headerEnd := end
			for j := i + 1; j < end; j++ {
				if tags[j].Code == 0 {
					headerEnd = j
					break
				}
			}
			for _, t := range tags[i+1 : headerEnd] {
				switch t.Code {
				case 2:
					block.Name = t.Value
				case 10:
					block.Base.X = t.Float()
				case 20:
					block.Base.Y = t.Float()
				case 30:
					block.Base.Z = t.Float()
				}
			}
			block.Items = parseEntitySpace(tags[headerEnd:end])
			doc.Blocks = append(doc.Blocks, block)
			i = end + 1
			continue
		}
		i++
	}
}

// parseEntitySpace walks one entity stream (model space or a block body),
// stitching VERTEX records into their POLYLINE and ATTRIB records into their
// INSERT.
func parseEntitySpace(tags []Tag) []*Entity {
	var out []*Entity
	i := 0
	next0 := func(from int) int {
		for j := from; j < len(tags); j++ {
			if tags[j].Code == 0 {
				return j
			}
		}
		return len(tags)
	}
	for i < len(tags) {
		if tags[i].Code != 0 {
			i++
			continue
		}
		etype := tags[i].Value
		end := next0(i + 1)
		if !isKnownEntity(etype) {
			i = end
			continue
		}
		e := parseEntityRun(etype, tags[i+1:end])
		i = end
		if etype == "POLYLINE" {
			for i < len(tags) && tags[i].Code == 0 && tags[i].Value == "VERTEX" {
				vend := next0(i + 1)
				parseVertex(e, tags[i+1:vend])
				i = vend
			}
			if i < len(tags) && tags[i].Code == 0 && tags[i].Value == "SEQEND" {
				i = next0(i + 1)
			}
		}
		if etype == "INSERT" {
			for i < len(tags) && tags[i].Code == 0 && tags[i].Value == "ATTRIB" {
				aend := next0(i + 1)
				e.Attribs = append(e.Attribs, parseAttrib(tags[i+1:aend]))
				i = aend
			}
			if i < len(tags) && tags[i].Code == 0 && tags[i].Value == "SEQEND" {
				i = next0(i + 1)
			}
		}
		out = append(out, e)
	}
	return out
}

func (doc *Document) parseObjects(tags []Tag) {
	for i := 0; i < len(tags); i++ {
		if tags[i].Code == 0 && tags[i].Value == "GEODATA" {
			end := i + 1
			for end < len(tags) && tags[end].Code != 0 {
				end++
			}
			doc.Geodata = parseGeodata(tags[i+1 : end])
			return
		}
	}
}

// QueryLayer finds a LAYER table record by name.
func (doc *Document) QueryLayer(name string) *LayerRecord {
	for _, l := range doc.Layers {
		if l.Name == name {
			return l
		}
	}
	return nil
}

// QueryBlock finds a block definition by name.
func (doc *Document) QueryBlock(name string) *Block {
	for _, b := range doc.Blocks {
		if b.Name == name {
			return b
		}
	}
	return nil
}

// Query returns model-space entities of one type, preserving file order.
func (doc *Document) Query(etype string) []*Entity {
	var out []*Entity
	for _, e := range doc.Entities {
		if e.Type == etype {
			out = append(out, e)
		}
	}
	return out
}
