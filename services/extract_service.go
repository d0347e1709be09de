package services

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/GrainArc/GeoCAD/Transformer"
	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/GrainArc/GeoCAD/methods"
	"github.com/GrainArc/GeoCAD/models"
)

// ExtractService turns a parsed DXF into the drawing's Layer/Entity rows.
type ExtractService struct {
	DB             *gorm.DB
	LayerBlacklist []string
	BlockBlacklist []string
}

// layerBucket collects the unclassified geometry of one layer while the
// entity space is walked; it is flushed into a single aggregate Entity at
// the end.
type layerBucket struct {
	layer      *models.Layer
	geometries []*geojson.Geometry
}

// Extract runs the whole pipeline: layer table, entity space, per-layer
// aggregates, block definitions and finally block insertions.
func (s *ExtractService) Extract(d *models.Drawing, doc *dxfcodec.Document, gt Transformer.GeoTransform, proj Transformer.Projection) error {
	table, err := s.prepareLayerTable(d, doc)
	if err != nil {
		return err
	}
	for _, etype := range dxfcodec.EntityTypes {
		if err := s.extractEntities(doc, etype, gt, proj, table); err != nil {
			return err
		}
	}
	if err := s.flushAggregates(table); err != nil {
		return err
	}
	blocks, err := s.saveBlocks(d, doc, gt, proj)
	if err != nil {
		return err
	}
	for _, ins := range doc.Query("INSERT") {
		if err := s.extractInsertion(ins, doc, gt, proj, table, blocks); err != nil {
			return err
		}
	}
	return nil
}

// prepareLayerTable creates one Layer row per DXF layer record, skipping
// blacklisted names. Colors come from the true color when set, otherwise
// from the ACI palette.
func (s *ExtractService) prepareLayerTable(d *models.Drawing, doc *dxfcodec.Document) (map[string]*layerBucket, error) {
	table := make(map[string]*layerBucket)
	for _, record := range doc.Layers {
		if methods.IsStringInSlice(record.Name, s.LayerBlacklist) {
			continue
		}
		layer := &models.Layer{}
		err := s.DB.Where("drawing_id = ? AND name = ? AND is_block = ?", d.ID, record.Name, false).
			First(layer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			layer = &models.Layer{
				DrawingID:  d.ID,
				Name:       record.Name,
				ColorField: methods.Cad2Hex(record.TrueColor, record.ACI),
				Linetype:   record.Continuous(),
			}
			if err = layer.SaveUnique(s.DB); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		table[record.Name] = &layerBucket{layer: layer}
	}
	return table, nil
}

// extractEntities walks one entity type. Closed simple polylines become
// classified polygon entities of their own; everything else lands in the
// layer aggregate.
func (s *ExtractService) extractEntities(doc *dxfcodec.Document, etype string, gt Transformer.GeoTransform, proj Transformer.Projection, table map[string]*layerBucket) error {
	for _, e := range doc.Query(etype) {
		bucket := table[e.Layer]
		if bucket == nil {
			continue
		}
		geom, ok := Transformer.EntityGeometry(e, gt, proj)
		if !ok {
			continue
		}
		if polygon, isPolygon := Transformer.LocalPolygon(e); isPolygon {
			if err := s.createClassified(doc, e, polygon, geom, bucket); err != nil {
				return err
			}
			continue
		}
		bucket.geometries = append(bucket.geometries, geojson.NewGeometry(geom))
	}
	return nil
}

// createClassified stores a closed polyline as its own entity with the
// descriptive attributes read off its shape and any text label it contains.
func (s *ExtractService) createClassified(doc *dxfcodec.Document, e *dxfcodec.Entity, polygon orb.Polygon, geom orb.Geometry, bucket *layerBucket) error {
	entity := &models.Entity{
		LayerID: bucket.layer.ID,
		Geom:    models.GeometryCollectionJSON([]*geojson.Geometry{geojson.NewGeometry(geom)}),
		XScale:  1,
		YScale:  1,
		Data:    models.DefaultEntityData(),
	}
	if err := s.DB.Create(entity).Error; err != nil {
		return err
	}

	var attrs []models.EntityData
	if name := labelInside(doc, e.Layer, polygon); name != "" {
		attrs = append(attrs, models.EntityData{Key: "Name", Value: name})
	}
	attrs = append(attrs,
		models.EntityData{Key: "Surface", Value: methods.FormatNum(methods.Round2(math.Abs(planar.Area(polygon))))},
		models.EntityData{Key: "Perimeter", Value: methods.FormatNum(methods.Round2(perimeter(polygon)))},
	)
	if e.Thickness != 0 {
		attrs = append(attrs, models.EntityData{Key: "Height", Value: methods.FormatNum(methods.Round2(e.Thickness))})
	}
	if e.ConstWidth != 0 {
		attrs = append(attrs, models.EntityData{Key: "Width", Value: methods.FormatNum(methods.Round2(e.ConstWidth))})
	}
	for i := range attrs {
		attrs[i].EntityID = entity.ID
		if err := s.DB.Create(&attrs[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

// labelInside finds the text whose insertion point lies inside the polygon,
// on the same layer. MTEXT is scanned first so a TEXT label wins over it.
func labelInside(doc *dxfcodec.Document, layer string, polygon orb.Polygon) string {
	name := ""
	for _, ttype := range dxfcodec.TextTypes {
		for _, t := range doc.Query(ttype) {
			if t.Layer != layer {
				continue
			}
			point := orb.Point{t.Insert.X, t.Insert.Y}
			if planar.PolygonContains(polygon, point) {
				name = t.Text
				break
			}
		}
	}
	return name
}

func perimeter(polygon orb.Polygon) float64 {
	total := 0.0
	for _, ring := range polygon {
		total += planar.Length(orb.LineString(ring))
	}
	return total
}

// flushAggregates writes one aggregate Entity per layer that collected
// unclassified geometry.
func (s *ExtractService) flushAggregates(table map[string]*layerBucket) error {
	for _, bucket := range table {
		if len(bucket.geometries) == 0 {
			continue
		}
		entity := &models.Entity{
			LayerID: bucket.layer.ID,
			Geom:    models.GeometryCollectionJSON(bucket.geometries),
			XScale:  1,
			YScale:  1,
			Data:    models.DefaultEntityData(),
		}
		if err := s.DB.Create(entity).Error; err != nil {
			return err
		}
	}
	return nil
}

// saveBlocks stores each block definition that yields geometry as an
// is_block layer keyed by block name.
func (s *ExtractService) saveBlocks(d *models.Drawing, doc *dxfcodec.Document, gt Transformer.GeoTransform, proj Transformer.Projection) (map[string]*models.Layer, error) {
	blocks := make(map[string]*models.Layer)
	for _, block := range doc.Blocks {
		if methods.IsStringInSlice(block.Name, s.BlockBlacklist) {
			continue
		}
		geometries := convertAll(block.Items, gt, proj)
		if len(geometries) == 0 {
			continue
		}
		layer := &models.Layer{}
		err := s.DB.Where("drawing_id = ? AND name = ? AND is_block = ?", d.ID, block.Name, true).
			First(layer).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			layer = &models.Layer{
				DrawingID: d.ID,
				Name:      block.Name,
				IsBlock:   true,
				Geom:      models.GeometryCollectionJSON(geometries),
			}
			if err = layer.SaveUnique(s.DB); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}
		blocks[block.Name] = layer
	}
	return blocks, nil
}

// convertAll converts a slice of DXF entities in the fixed type order,
// without the polygon classification pass.
func convertAll(items []*dxfcodec.Entity, gt Transformer.GeoTransform, proj Transformer.Projection) []*geojson.Geometry {
	var geometries []*geojson.Geometry
	for _, etype := range dxfcodec.EntityTypes {
		for _, e := range items {
			if e.Type != etype {
				continue
			}
			if geom, ok := Transformer.EntityGeometry(e, gt, proj); ok {
				geometries = append(geometries, geojson.NewGeometry(geom))
			}
		}
	}
	return geometries
}

// extractInsertion materializes one block reference: the exploded geometry,
// the insertion point and the ATTRIB values.
func (s *ExtractService) extractInsertion(ins *dxfcodec.Entity, doc *dxfcodec.Document, gt Transformer.GeoTransform, proj Transformer.Projection, table map[string]*layerBucket, blocks map[string]*models.Layer) error {
	if methods.IsStringInSlice(ins.Name, s.BlockBlacklist) {
		return nil
	}
	bucket := table[ins.Layer]
	blockLayer := blocks[ins.Name]
	if bucket == nil || blockLayer == nil {
		return nil
	}

	cx, cy := gt.WCSToCRS(ins.Insert.X, ins.Insert.Y)
	lon, lat := proj.ToWGS84(cx, cy)
	insertion, _ := geojson.NewGeometry(orb.Point{lon, lat}).MarshalJSON()

	geometries := convertAll(dxfcodec.VirtualEntities(ins, doc.QueryBlock(ins.Name)), gt, proj)

	blockID := blockLayer.ID
	entity := &models.Entity{
		LayerID:   bucket.layer.ID,
		BlockID:   &blockID,
		Geom:      models.GeometryCollectionJSON(geometries),
		Insertion: insertion,
		Rotation:  methods.Round2(ins.Rotation),
		XScale:    methods.Round2(ins.XScale),
		YScale:    methods.Round2(ins.YScale),
		Data:      insertionData(),
	}
	if err := s.DB.Create(entity).Error; err != nil {
		return err
	}
	for _, attrib := range ins.Attribs {
		row := models.EntityData{EntityID: entity.ID, Key: attrib.Tag, Value: attrib.Text}
		if err := s.DB.Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func insertionData() datatypes.JSONMap {
	return datatypes.JSONMap{"processed": "true", "added": "false"}
}
