package services

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"gorm.io/gorm"

	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/GrainArc/GeoCAD/methods"
	"github.com/GrainArc/GeoCAD/models"
)

// CSVService renders extracted drawing data as tabular exports.
type CSVService struct {
	DB *gorm.DB
}

func NewCSVService(db *gorm.DB) *CSVService {
	return &CSVService{DB: db}
}

var classifiedKeys = []string{"Name", "Surface", "Perimeter", "Height", "Width"}

// WriteCSV emits one row per extracted entity in a fixed column order.
// Classified attributes land in their named columns, insertion attributes
// are appended as trailing key/value pairs.
func (s *CSVService) WriteCSV(w io.Writer, d *models.Drawing) error {
	writer := csv.NewWriter(w)
	header := []string{
		"ID", "Layer", "Block",
		"Name", "Surface", "Perimeter", "Height", "Width",
		"Rotation", "X scale", "Y scale", "Latitude", "Longitude",
		"Attributes",
	}
	if err := writer.Write(header); err != nil {
		return err
	}

	var layers []models.Layer
	if err := s.DB.Where("drawing_id = ? AND is_block = ?", d.ID, false).
		Order("id").Find(&layers).Error; err != nil {
		return err
	}
	for _, layer := range layers {
		var entities []models.Entity
		if err := s.DB.Preload("Block").Preload("Related").
			Where("layer_id = ?", layer.ID).Order("id").
			Find(&entities).Error; err != nil {
			return err
		}
		for i := range entities {
			if err := writer.Write(entityRow(&entities[i], layer.Name)); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

func entityRow(e *models.Entity, layerName string) []string {
	row := []string{strconv.FormatUint(uint64(e.ID), 10), layerName}

	if e.IsInsertion() {
		blockName := ""
		if e.Block != nil {
			blockName = e.Block.Name
		}
		row = append(row, blockName)
		for range classifiedKeys {
			row = append(row, "")
		}
		lon, lat, _ := e.InsertionPoint()
		row = append(row,
			methods.FormatNum(e.Rotation),
			methods.FormatNum(e.XScale),
			methods.FormatNum(e.YScale),
			methods.FormatNum(lon),
			methods.FormatNum(lat),
		)
		for _, data := range e.Related {
			row = append(row, data.Key, data.Value)
		}
		return row
	}

	row = append(row, "")
	values := make(map[string]string, len(e.Related))
	for _, data := range e.Related {
		values[data.Key] = data.Value
	}
	for _, key := range classifiedKeys {
		row = append(row, values[key])
	}
	row = append(row, "", "", "", "", "")
	return row
}

// WriteCSVFromFile reads pipe-like open polylines straight out of the DXF
// file: open, with a constant width, length measured in drawing units. A
// polyline with no thickness is treated as a round pipe, otherwise as a
// rectangular duct.
func (s *CSVService) WriteCSVFromFile(w io.Writer, d *models.Drawing) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Layer", "Elevation", "Length", "Width", "Height", "Diameter"}); err != nil {
		return err
	}
	doc, err := dxfcodec.ParseFile(d.Dxf)
	if err != nil {
		return err
	}
	for _, etype := range []string{"LWPOLYLINE", "POLYLINE"} {
		for _, e := range doc.Query(etype) {
			if e.Closed || e.ConstWidth == 0 {
				continue
			}
			line := make(orb.LineString, len(e.Points))
			for i, p := range e.Points {
				line[i] = orb.Point{p.X, p.Y}
			}
			width, height, diameter := 0.0, 0.0, e.ConstWidth
			if e.Thickness != 0 {
				width, height, diameter = e.ConstWidth, e.Thickness, 0
			}
			row := []string{
				e.Layer,
				methods.FormatNum(e.Elevation),
				methods.FormatNum(planar.Length(line)),
				methods.FormatNum(width),
				methods.FormatNum(height),
				methods.FormatNum(diameter),
			}
			if err := writer.Write(row); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}
