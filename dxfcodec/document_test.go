package dxfcodec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureCRS = `<?xml version="1.0" encoding="UTF-16" standalone="no" ?><Dictionary version="1.0" xmlns="http://www.osgeo.org/mapguide/coordinatesystem"><Alias id="32633" type="CoordinateSystem"><ObjectId>EPSG=32633</ObjectId></Alias><Axis uom="METER"><CoordinateSystemAxis><AxisOrder>1</AxisOrder></CoordinateSystemAxis></Axis></Dictionary>`

const fixtureDXF = `  0
SECTION
  2
HEADER
  9
$DWGCODEPAGE
  3
ANSI_1252
  0
ENDSEC
  0
SECTION
  2
TABLES
  0
TABLE
  2
LAYER
  0
LAYER
  2
Rooms
 62
1
  6
Continuous
  0
LAYER
  2
Walls
 62
5
420
1193046
  6
DASHED
  0
ENDTAB
  0
ENDSEC
  0
SECTION
  2
BLOCKS
  0
BLOCK
  2
Desk
 10
0.0
 20
0.0
 30
0.0
  0
LWPOLYLINE
  8
0
 70
1
 10
0.0
 20
0.0
 10
1.0
 20
0.0
 10
1.0
 20
1.0
 10
0.0
 20
1.0
  0
ENDBLK
  0
ENDSEC
  0
SECTION
  2
ENTITIES
  0
LINE
  8
Walls
 10
0.0
 20
0.0
 11
10.0
 21
0.0
  0
LWPOLYLINE
  8
Rooms
 70
1
 39
2.7
 10
0.0
 20
0.0
 10
10.0
 20
0.0
 10
10.0
 20
10.0
 10
0.0
 20
10.0
  0
TEXT
  8
Rooms
 10
5.0
 20
5.0
  1
Living Room
  0
POLYLINE
  8
Walls
 70
0
  0
VERTEX
 10
0.0
 20
20.0
  0
VERTEX
 10
5.0
 20
20.0
  0
VERTEX
 10
5.0
 20
25.0
  0
SEQEND
  0
INSERT
  8
Rooms
 66
1
  2
Desk
 10
2.0
 20
2.0
 41
2.0
 42
2.0
 50
90.0
  0
ATTRIB
  8
Rooms
 10
2.0
 20
2.0
  1
oak
  2
MATERIAL
  0
SEQEND
  0
ENDSEC
  0
SECTION
  2
OBJECTS
  0
GEODATA
  5
FFFA
100
AcDbGeoData
 10
100.0
 20
200.0
 30
0.0
 11
251535.08
 21
4654130.89
 31
0.0
 12
0.0
 22
1.0
301
` + fixtureCRS + `
  0
ENDSEC
  0
EOF
`

func parseFixture(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(fixtureDXF))
	require.NoError(t, err)
	return doc
}

func TestParseHeader(t *testing.T) {
	doc := parseFixture(t)
	assert.Equal(t, "ANSI_1252", doc.Codepage)
}

func TestParseLayers(t *testing.T) {
	doc := parseFixture(t)
	require.Len(t, doc.Layers, 2)

	rooms := doc.QueryLayer("Rooms")
	require.NotNil(t, rooms)
	assert.Equal(t, 1, rooms.ACI)
	assert.Nil(t, rooms.TrueColor)
	assert.True(t, rooms.Continuous())

	walls := doc.QueryLayer("Walls")
	require.NotNil(t, walls)
	require.NotNil(t, walls.TrueColor)
	assert.Equal(t, [3]uint8{0x12, 0x34, 0x56}, *walls.TrueColor)
	assert.False(t, walls.Continuous())
}

func TestParseBlocks(t *testing.T) {
	doc := parseFixture(t)
	block := doc.QueryBlock("Desk")
	require.NotNil(t, block)
	require.Len(t, block.Items, 1)
	item := block.Items[0]
	assert.Equal(t, "LWPOLYLINE", item.Type)
	assert.True(t, item.Closed)
	assert.Len(t, item.Points, 4)
}

func TestParseEntities(t *testing.T) {
	doc := parseFixture(t)

	lines := doc.Query("LINE")
	require.Len(t, lines, 1)
	assert.Equal(t, "Walls", lines[0].Layer)
	assert.Equal(t, 10.0, lines[0].Points[1].X)

	polys := doc.Query("LWPOLYLINE")
	require.Len(t, polys, 1)
	assert.True(t, polys[0].Closed)
	assert.Equal(t, 2.7, polys[0].Thickness)
	assert.Len(t, polys[0].Points, 4)

	texts := doc.Query("TEXT")
	require.Len(t, texts, 1)
	assert.Equal(t, "Living Room", texts[0].Text)
	assert.Equal(t, 5.0, texts[0].Insert.X)
}

func TestParsePolylineVertices(t *testing.T) {
	doc := parseFixture(t)
	polylines := doc.Query("POLYLINE")
	require.Len(t, polylines, 1)
	e := polylines[0]
	assert.False(t, e.Closed)
	require.Len(t, e.Points, 3)
	assert.Equal(t, 25.0, e.Points[2].Y)
}

func TestParseInsertWithAttribs(t *testing.T) {
	doc := parseFixture(t)
	inserts := doc.Query("INSERT")
	require.Len(t, inserts, 1)
	ins := inserts[0]
	assert.Equal(t, "Desk", ins.Name)
	assert.Equal(t, 2.0, ins.Insert.X)
	assert.Equal(t, 2.0, ins.XScale)
	assert.Equal(t, 90.0, ins.Rotation)
	require.Len(t, ins.Attribs, 1)
	assert.Equal(t, "MATERIAL", ins.Attribs[0].Tag)
	assert.Equal(t, "oak", ins.Attribs[0].Text)
}

func TestParseGeodata(t *testing.T) {
	doc := parseFixture(t)
	require.NotNil(t, doc.Geodata)
	g := doc.Geodata
	assert.Equal(t, 100.0, g.DesignPoint.X)
	assert.Equal(t, 200.0, g.DesignPoint.Y)
	assert.Equal(t, 251535.08, g.ReferencePoint.X)
	assert.Equal(t, [2]float64{0, 1}, g.NorthDirection)

	epsg, axis, err := g.CRS()
	require.NoError(t, err)
	assert.Equal(t, 32633, epsg)
	assert.True(t, axis)
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse(strings.NewReader(""))
	assert.Error(t, err)
}

func TestReadTagsTruncated(t *testing.T) {
	tags, err := ReadTags(strings.NewReader("  0\nSECTION\n  2\nTABLES\n"))
	require.NoError(t, err)
	assert.Len(t, tags, 2)

	_, err = ReadTags(strings.NewReader("  0\nSECTION\n  2"))
	assert.Error(t, err)
}

func TestReadTagsBadCode(t *testing.T) {
	_, err := ReadTags(strings.NewReader("zero\nSECTION\n"))
	assert.Error(t, err)
}
