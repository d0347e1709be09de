package views

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GrainArc/GeoCAD/Transformer"
	"github.com/GrainArc/GeoCAD/config"
	"github.com/GrainArc/GeoCAD/models"
	"github.com/GrainArc/GeoCAD/services"
)

func (uc *CadController) DrawingList(c *gin.Context) {
	var drawings []models.Drawing
	if err := models.GetDB().Order("id").Find(&drawings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	georeferenced := make([]models.Drawing, 0)
	unreferenced := make([]models.Drawing, 0)
	for _, d := range drawings {
		if d.EPSG != nil {
			georeferenced = append(georeferenced, d)
		} else {
			unreferenced = append(unreferenced, d)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"georeferenced": georeferenced,
		"unreferenced":  unreferenced,
	})
}

func (uc *CadController) DrawingDetail(c *gin.Context) {
	d, ok := loadDrawing(c)
	if !ok {
		return
	}
	var layers []models.Layer
	models.GetDB().Where("drawing_id = ? AND is_block = ?", d.ID, false).Order("id").Find(&layers)

	layerList := make([]gin.H, 0, len(layers))
	for _, layer := range layers {
		var entities []models.Entity
		models.GetDB().Preload("Layer").Preload("Block").Preload("Related").
			Where("layer_id = ?", layer.ID).Order("id").Find(&entities)
		entityList := make([]gin.H, 0, len(entities))
		for i := range entities {
			entityList = append(entityList, gin.H{
				"entity": entities[i],
				"popup":  entities[i].PopupContent(),
			})
		}
		layerList = append(layerList, gin.H{
			"layer":    layer,
			"entities": entityList,
		})
	}
	var blocks []models.Layer
	models.GetDB().Where("drawing_id = ? AND is_block = ?", d.ID, true).Order("id").Find(&blocks)

	crsWKT := ""
	if d.EPSG != nil {
		crsWKT = models.LookupSRText(*d.EPSG)
	}
	c.JSON(http.StatusOK, gin.H{
		"drawing": d,
		"popup":   d.PopupContent(),
		"crs":     crsWKT,
		"layers":  layerList,
		"blocks":  blocks,
	})
}

func (uc *CadController) AddDrawing(c *gin.Context) {
	var form DrawingForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if form.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	dxfPath, err := saveUploadedDXF(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d := &models.Drawing{
		Title: form.Title,
		Dxf:   dxfPath,
	}
	applyDrawingForm(d, &form)
	if image, err := c.FormFile("image"); err == nil {
		if path, err := saveUploadedFile(c, image, "images"); err == nil {
			d.Image = path
		}
	}
	if err := services.NewDrawingService(models.GetDB()).Save(d); err != nil {
		drawingSaveError(c, err)
		return
	}
	respondWithDrawing(c, d)
}

func (uc *CadController) ChangeDrawing(c *gin.Context) {
	d, ok := loadDrawing(c)
	if !ok {
		return
	}
	var form DrawingForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if form.Title != "" {
		d.Title = form.Title
	}
	applyDrawingForm(d, &form)
	if _, err := c.FormFile("dxf"); err == nil {
		path, err := saveUploadedDXF(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		d.Dxf = path
	}
	if err := services.NewDrawingService(models.GetDB()).Save(d); err != nil {
		drawingSaveError(c, err)
		return
	}
	respondWithDrawing(c, d)
}

func (uc *CadController) DelDrawing(c *gin.Context) {
	d, ok := loadDrawing(c)
	if !ok {
		return
	}
	if err := services.NewDrawingService(models.GetDB()).Delete(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if d.Dxf != "" {
		os.Remove(d.Dxf)
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (uc *CadController) DrawingCSV(c *gin.Context) {
	d, ok := loadDrawing(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+d.Title+`.csv"`)
	if err := services.NewCSVService(models.GetDB()).WriteCSV(c.Writer, d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (uc *CadController) DrawingPipesCSV(c *gin.Context) {
	d, ok := loadDrawing(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+d.Title+`_pipes.csv"`)
	if err := services.NewCSVService(models.GetDB()).WriteCSVFromFile(c.Writer, d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// DownloadDrawingDXF flushes pending added insertions into the stored file
// and serves it.
func (uc *CadController) DownloadDrawingDXF(c *gin.Context) {
	d, ok := loadDrawing(c)
	if !ok {
		return
	}
	if _, err := services.NewInsertionService(models.GetDB()).PrepareDXFToDownload(d); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(d.Dxf, d.Title+".dxf")
}

// ExportFlatDXF serves a block-exploded copy in drawing units.
func (uc *CadController) ExportFlatDXF(c *gin.Context) {
	d, ok := loadDrawing(c)
	if !ok {
		return
	}
	if d.EPSG == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrDrawingUnresolved.Error()})
		return
	}
	outputPath := filepath.Join(config.Download, uuid.New().String()+".dxf")
	os.MkdirAll(filepath.Dir(outputPath), 0755)
	if err := services.NewDXFExportService(models.GetDB()).ExportFlattened(d, outputPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.FileAttachment(outputPath, d.Title+"_flat.dxf")
}

func loadDrawing(c *gin.Context) (*models.Drawing, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad drawing id"})
		return nil, false
	}
	d, err := services.NewDrawingService(models.GetDB()).Get(uint(id))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "drawing not found"})
		return nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return d, true
}

func applyDrawingForm(d *models.Drawing, form *DrawingForm) {
	if form.Long != nil && form.Lat != nil {
		d.SetGeomPoint(*form.Long, *form.Lat)
	}
	if form.DesignX != nil {
		d.DesignX = *form.DesignX
	}
	if form.DesignY != nil {
		d.DesignY = *form.DesignY
	}
	if form.Rotation != nil {
		d.Rotation = *form.Rotation
	}
	d.ParentID = form.ParentID
}

func respondWithDrawing(c *gin.Context, d *models.Drawing) {
	payload := gin.H{"drawing": d}
	if d.EPSG == nil {
		payload["warning"] = "drawing could not be georeferenced, upload a file with geodata or set an origin point"
	}
	c.JSON(http.StatusOK, payload)
}

func drawingSaveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, Transformer.ErrNoCandidateCRS):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "parent drawing not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func saveUploadedDXF(c *gin.Context) (string, error) {
	file, err := c.FormFile("dxf")
	if err != nil {
		return "", errors.New("dxf file is required")
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".dxf") {
		return "", errors.New("only .dxf files are accepted")
	}
	return saveUploadedFile(c, file, "dxf")
}

func saveUploadedFile(c *gin.Context, file *multipart.FileHeader, subdir string) (string, error) {
	path := filepath.Join(config.Upload, subdir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	if err := c.SaveUploadedFile(file, path); err != nil {
		return "", err
	}
	return path, nil
}
