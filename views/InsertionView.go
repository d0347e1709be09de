package views

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/GrainArc/GeoCAD/models"
	"github.com/GrainArc/GeoCAD/services"
)

// AddInsertion places a new block reference on the map. The entity carries
// the added marker so the next DXF download writes it into the file.
func (uc *CadController) AddInsertion(c *gin.Context) {
	var form InsertionForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var layer, block models.Layer
	if err := models.GetDB().First(&layer, form.LayerID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "layer not found"})
		return
	}
	if err := models.GetDB().First(&block, form.BlockID).Error; err != nil || !block.IsBlock {
		c.JSON(http.StatusBadRequest, gin.H{"error": "block not found"})
		return
	}
	blockID := block.ID
	e := &models.Entity{
		LayerID:   layer.ID,
		BlockID:   &blockID,
		Insertion: pointJSON(form.Long, form.Lat),
		Rotation:  form.Rotation,
		XScale:    defaultScale(form.XScale),
		YScale:    defaultScale(form.YScale),
		Data:      datatypes.JSONMap{"processed": "true", "added": "true"},
	}
	svc := services.NewInsertionService(models.GetDB())
	if err := svc.Save(e); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := upsertAttributes(e, form.Attributes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	respondWithEntity(c, e.ID)
}

// ChangeInsertion moves or rescales an insertion and updates its
// attributes. Geometry of added insertions is replayed from the block
// template on save.
func (uc *CadController) ChangeInsertion(c *gin.Context) {
	e, ok := loadInsertion(c)
	if !ok {
		return
	}
	var form InsertionChangeForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if form.Long != nil && form.Lat != nil {
		e.Insertion = pointJSON(*form.Long, *form.Lat)
	}
	if form.Rotation != nil {
		e.Rotation = *form.Rotation
	}
	if form.XScale != nil {
		e.XScale = defaultScale(*form.XScale)
	}
	if form.YScale != nil {
		e.YScale = defaultScale(*form.YScale)
	}
	if err := services.NewInsertionService(models.GetDB()).Save(e); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := upsertAttributes(e, form.Attributes); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	respondWithEntity(c, e.ID)
}

func (uc *CadController) DelInsertion(c *gin.Context) {
	e, ok := loadInsertion(c)
	if !ok {
		return
	}
	if err := services.NewInsertionService(models.GetDB()).Delete(e); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func loadInsertion(c *gin.Context) (*models.Entity, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad entity id"})
		return nil, false
	}
	var e models.Entity
	err = models.GetDB().Preload("Layer").Preload("Block").Preload("Related").First(&e, uint(id)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entity not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	if !e.IsInsertion() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "entity is not a block insertion"})
		return nil, false
	}
	return &e, true
}

func pointJSON(lon, lat float64) datatypes.JSON {
	data, _ := geojson.NewGeometry(orb.Point{lon, lat}).MarshalJSON()
	return data
}

func defaultScale(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

func upsertAttributes(e *models.Entity, attributes map[string]string) error {
	for key, value := range attributes {
		var row models.EntityData
		err := models.GetDB().Where("entity_id = ? AND key = ?", e.ID, key).First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = models.EntityData{EntityID: e.ID, Key: key, Value: value}
			if err := models.GetDB().Create(&row).Error; err != nil {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		row.Value = value
		if err := models.GetDB().Save(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func respondWithEntity(c *gin.Context, id uint) {
	var e models.Entity
	if err := models.GetDB().Preload("Layer").Preload("Block").Preload("Related").First(&e, id).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entity": e, "popup": e.PopupContent()})
}
