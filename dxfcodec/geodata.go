package dxfcodec

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Geodata is the DXF OBJECTS-section record anchoring the drawing's WCS to a
// real coordinate reference system.
type Geodata struct {
	DesignPoint    Point3
	ReferencePoint Point3
	NorthDirection [2]float64
	// CoordinateSystemDefinition is the MapGuide dictionary XML naming the CRS.
	CoordinateSystemDefinition string
}

func parseGeodata(run []Tag) *Geodata {
	g := &Geodata{NorthDirection: [2]float64{0, 1}}
	var chunks []string
	for _, t := range run {
		switch t.Code {
		case 10:
			g.DesignPoint.X = t.Float()
		case 20:
			g.DesignPoint.Y = t.Float()
		case 30:
			g.DesignPoint.Z = t.Float()
		case 11:
			g.ReferencePoint.X = t.Float()
		case 21:
			g.ReferencePoint.Y = t.Float()
		case 31:
			g.ReferencePoint.Z = t.Float()
		case 12:
			g.NorthDirection[0] = t.Float()
		case 22:
			g.NorthDirection[1] = t.Float()
		case 301, 303:
			chunks = append(chunks, t.Value)
		}
	}
	g.CoordinateSystemDefinition = strings.Join(chunks, "")
	return g
}

type crsAlias struct {
	ID       string `xml:"id,attr"`
	ObjectId string `xml:"ObjectId"`
}

type crsDictionary struct {
	XMLName xml.Name  `xml:"Dictionary"`
	Alias   *crsAlias `xml:"Alias"`
	Axis    *struct {
		Uom string `xml:"uom,attr"`
	} `xml:"Axis"`
}

// CRS extracts the EPSG code and axis-order presence from the coordinate
// system definition. Any structural defect is an error; callers treat it as
// "drawing stays ungeoreferenced", not as a failure.
func (g *Geodata) CRS() (epsg int, axis bool, err error) {
	decoder := xml.NewDecoder(strings.NewReader(g.CoordinateSystemDefinition))
	// definitions routinely claim UTF-16 while being plain ASCII
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	var dict crsDictionary
	if err := decoder.Decode(&dict); err != nil {
		return 0, false, fmt.Errorf("dxfcodec: invalid coordinate system definition: %w", err)
	}
	if dict.Alias == nil {
		return 0, false, fmt.Errorf("dxfcodec: coordinate system definition has no alias")
	}
	code := dict.Alias.ID
	if code == "" {
		code = strings.TrimPrefix(dict.Alias.ObjectId, "EPSG=")
	}
	epsg, convErr := strconv.Atoi(strings.TrimSpace(code))
	if convErr != nil {
		return 0, false, fmt.Errorf("dxfcodec: coordinate system alias %q is not an EPSG code", code)
	}
	return epsg, dict.Axis != nil, nil
}

// EPSGDictionaryXML is the fixed CRS definition template written into faked
// geodata; only the EPSG number varies.
func EPSGDictionaryXML(epsg int) string {
	return fmt.Sprintf(`<?xml version="1.0"
encoding="UTF-16" standalone="no" ?>
<Dictionary version="1.0" xmlns="http://www.osgeo.org/mapguide/coordinatesystem">
<Alias id="%d" type="CoordinateSystem">
<ObjectId>EPSG=%d</ObjectId>
<Namespace>EPSG Code</Namespace>
</Alias>
<Axis uom="METER">
<CoordinateSystemAxis>
<AxisOrder>1</AxisOrder>
<AxisName>Easting</AxisName>
<AxisAbbreviation>E</AxisAbbreviation>
<AxisDirection>east</AxisDirection>
</CoordinateSystemAxis>
<CoordinateSystemAxis>
<AxisOrder>2</AxisOrder>
<AxisName>Northing</AxisName>
<AxisAbbreviation>N</AxisAbbreviation>
<AxisDirection>north</AxisDirection>
</CoordinateSystemAxis>
</Axis>
</Dictionary>`, epsg, epsg)
}

// geodataTags serializes the record for the OBJECTS section.
func (g *Geodata) geodataTags() []Tag {
	tags := []Tag{
		{0, "GEODATA"},
		{5, "FFFA"},
		{100, "AcDbGeoData"},
		{90, "3"},
		{70, "2"},
		{10, formatFloat(g.DesignPoint.X)},
		{20, formatFloat(g.DesignPoint.Y)},
		{30, formatFloat(g.DesignPoint.Z)},
		{11, formatFloat(g.ReferencePoint.X)},
		{21, formatFloat(g.ReferencePoint.Y)},
		{31, formatFloat(g.ReferencePoint.Z)},
		{12, formatFloat(g.NorthDirection[0])},
		{22, formatFloat(g.NorthDirection[1])},
		{40, "1.0"},
		{91, "1"},
		{41, "1.0"},
		{92, "1"},
		{95, "3"},
		{141, "1.0"},
		{294, "0"},
		{142, "0.0"},
		{143, "0.0"},
	}
	// tag values are line-based, the definition must be newline-free on disk
	def := strings.ReplaceAll(g.CoordinateSystemDefinition, "\r", "")
	def = strings.ReplaceAll(def, "\n", " ")
	for len(def) > 255 {
		tags = append(tags, Tag{303, def[:255]})
		def = def[255:]
	}
	tags = append(tags, Tag{301, def})
	return tags
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
