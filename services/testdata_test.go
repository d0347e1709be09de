package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/GrainArc/GeoCAD/models"
)

// fixture reference point: easting/northing of 12.0E 42.0N in
// EPSG:32633
const (
	fixtureRefX = 251535.08
	fixtureRefY = 4654130.89
)

const fixtureHeader = `  0
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
  6
Continuous
  0
LAYER
  2
Defpoints
 62
7
  6
Continuous
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
BLOCK
  2
*Model_Space
 10
0.0
 20
0.0
 30
0.0
  0
LINE
  8
0
 10
0.0
 20
0.0
 11
1.0
 21
1.0
  0
ENDBLK
  0
ENDSEC
`

const fixtureEntities = `  0
SECTION
  2
ENTITIES
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
MTEXT
  8
Rooms
 10
5.0
 20
5.0
  1
Old Label
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
Walls
 70
1
 10
20.0
 20
0.0
 10
30.0
 20
10.0
 10
30.0
 20
0.0
 10
20.0
 20
10.0
  0
LWPOLYLINE
  8
Walls
 43
0.5
 10
40.0
 20
0.0
 10
45.0
 20
0.0
  0
LINE
  8
Defpoints
 10
0.0
 20
0.0
 11
1.0
 21
1.0
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
`

const fixtureGeodata = `  0
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
0.0
 20
0.0
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
<?xml version="1.0" encoding="UTF-16" standalone="no" ?><Dictionary version="1.0" xmlns="http://www.osgeo.org/mapguide/coordinatesystem"><Alias id="32633" type="CoordinateSystem"><ObjectId>EPSG=32633</ObjectId></Alias><Axis uom="METER"><CoordinateSystemAxis><AxisOrder>1</AxisOrder></CoordinateSystemAxis></Axis></Dictionary>
  0
ENDSEC
`

const fixtureEOF = `  0
EOF
`

func fixtureDXF(withGeodata bool) string {
	if withGeodata {
		return fixtureHeader + fixtureEntities + fixtureGeodata + fixtureEOF
	}
	return fixtureHeader + fixtureEntities + fixtureEOF
}

func writeFixture(t *testing.T, withGeodata bool) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.dxf")
	require.NoError(t, os.WriteFile(path, []byte(fixtureDXF(withGeodata)), 0644))
	return path
}

func setupServices(t *testing.T) *DrawingService {
	t.Helper()
	require.NoError(t, models.InitSQLiteDB(filepath.Join(t.TempDir(), "svc.db")))
	return NewDrawingService(models.DB)
}

func layersOf(t *testing.T, d *models.Drawing, isBlock bool) []models.Layer {
	t.Helper()
	var layers []models.Layer
	require.NoError(t, models.DB.
		Where("drawing_id = ? AND is_block = ?", d.ID, isBlock).
		Order("id").Find(&layers).Error)
	return layers
}

func layerByName(t *testing.T, d *models.Drawing, name string, isBlock bool) *models.Layer {
	t.Helper()
	var layer models.Layer
	require.NoError(t, models.DB.
		Where("drawing_id = ? AND name = ? AND is_block = ?", d.ID, name, isBlock).
		First(&layer).Error)
	return &layer
}

func entitiesOf(t *testing.T, layer *models.Layer) []models.Entity {
	t.Helper()
	var entities []models.Entity
	require.NoError(t, models.DB.Preload("Related").Preload("Block").Preload("Layer").
		Where("layer_id = ?", layer.ID).Order("id").Find(&entities).Error)
	return entities
}

func relatedMap(e *models.Entity) map[string]string {
	out := make(map[string]string, len(e.Related))
	for _, row := range e.Related {
		out[row.Key] = row.Value
	}
	return out
}

func parseStoredDXF(t *testing.T, path string) *dxfcodec.Document {
	t.Helper()
	doc, err := dxfcodec.ParseFile(path)
	require.NoError(t, err)
	return doc
}
