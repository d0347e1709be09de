package views

import (
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GrainArc/GeoCAD/models"
)

func detailFor(t *testing.T, id uint) map[string]json.RawMessage {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(uint64(id), 10)}}

	uc := &CadController{}
	uc.DrawingDetail(c)
	require.Equal(t, 200, w.Code)

	var payload map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestDrawingDetailSplitsLayersAndBlocks(t *testing.T) {
	require.NoError(t, models.InitSQLiteDB(filepath.Join(t.TempDir(), "test.db")))
	d := &models.Drawing{Title: "plan"}
	require.NoError(t, models.DB.Create(d).Error)
	require.NoError(t, models.DB.Create(&models.Layer{DrawingID: d.ID, Name: "Rooms"}).Error)
	require.NoError(t, models.DB.Create(&models.Layer{DrawingID: d.ID, Name: "Desk", IsBlock: true}).Error)

	payload := detailFor(t, d.ID)

	var layerList []struct {
		Layer models.Layer `json:"layer"`
	}
	require.NoError(t, json.Unmarshal(payload["layers"], &layerList))
	require.Len(t, layerList, 1)
	assert.Equal(t, "Rooms", layerList[0].Layer.Name)

	var blocks []models.Layer
	require.NoError(t, json.Unmarshal(payload["blocks"], &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, "Desk", blocks[0].Name)
	assert.True(t, blocks[0].IsBlock)
}

func TestDrawingDetailIncludesCRSText(t *testing.T) {
	require.NoError(t, models.InitSQLiteDB(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, models.DB.Create(&models.SpatialRefSys{
		SRID:   32633,
		SRText: `PROJCS["WGS 84 / UTM zone 33N"]`,
	}).Error)
	epsg := 32633
	d := &models.Drawing{Title: "plan", EPSG: &epsg}
	require.NoError(t, models.DB.Create(d).Error)

	payload := detailFor(t, d.ID)

	var crs string
	require.NoError(t, json.Unmarshal(payload["crs"], &crs))
	assert.Equal(t, `PROJCS["WGS 84 / UTM zone 33N"]`, crs)
}
