package services

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"

	"github.com/GrainArc/GeoCAD/Transformer"
	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/GrainArc/GeoCAD/methods"
	"github.com/GrainArc/GeoCAD/models"
)

// InsertionService manages manually added block insertions: replaying their
// geometry from the stored block template and writing them back into the
// drawing's DXF on download.
type InsertionService struct {
	DB *gorm.DB
}

func NewInsertionService(db *gorm.DB) *InsertionService {
	return &InsertionService{DB: db}
}

var ErrNotInsertion = errors.New("entity is not a block insertion")

// Save persists an insertion entity. Entities carrying the added marker get
// their geometry replayed in memory from the block template, so moving or
// rescaling an added insertion regenerates its footprint without touching
// the DXF file.
func (s *InsertionService) Save(e *models.Entity) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if e.HasAddedMarker() && e.BlockID != nil {
			if err := s.replayGeometry(tx, e); err != nil {
				return err
			}
		}
		if err := tx.Save(e).Error; err != nil {
			return err
		}
		return s.inheritSiblingAttributes(tx, e)
	})
}

// replayGeometry rebuilds e.Geom by exploding the stored block layer
// geometry at the entity's insertion point, scale and rotation.
func (s *InsertionService) replayGeometry(tx *gorm.DB, e *models.Entity) error {
	var blockLayer models.Layer
	if err := tx.First(&blockLayer, *e.BlockID).Error; err != nil {
		return err
	}
	var drawing models.Drawing
	if err := tx.First(&drawing, blockLayer.DrawingID).Error; err != nil {
		return err
	}
	transforms, err := Transformer.PrepareTransformers(&drawing)
	if err != nil {
		return err
	}
	gt := transforms.GeoTransform(&drawing)

	doc := dxfcodec.New()
	block := doc.NewBlock(blockLayer.Name, dxfcodec.Point3{})
	block.Items = blockTemplateEntities(blockLayer.Geom, gt, transforms.Proj)

	lon, lat, ok := e.InsertionPoint()
	if !ok {
		return ErrNotInsertion
	}
	cx, cy := transforms.Proj.FromWGS84(lon, lat)
	ix, iy := gt.CRSToWCS(cx, cy)

	ins := &dxfcodec.Entity{
		Type:     "INSERT",
		Name:     blockLayer.Name,
		Insert:   dxfcodec.Point3{X: ix, Y: iy},
		XScale:   scaleOrOne(e.XScale),
		YScale:   scaleOrOne(e.YScale),
		ZScale:   1,
		Rotation: e.Rotation,
	}
	geometries := convertAll(dxfcodec.VirtualEntities(ins, block), gt, transforms.Proj)
	e.Geom = models.GeometryCollectionJSON(geometries)
	return nil
}

func scaleOrOne(v float64) float64 {
	if v == 0 {
		return 1
	}
	return v
}

// blockTemplateEntities converts the stored WGS84 block geometry back into
// drawing-unit entities usable as a block definition.
func blockTemplateEntities(geom []byte, gt Transformer.GeoTransform, proj Transformer.Projection) []*dxfcodec.Entity {
	parsed, err := geojson.UnmarshalGeometry(geom)
	if err != nil {
		return nil
	}
	collection, ok := parsed.Geometry().(orb.Collection)
	if !ok {
		collection = orb.Collection{parsed.Geometry()}
	}
	toLocal := func(p orb.Point) dxfcodec.Point3 {
		cx, cy := proj.FromWGS84(p[0], p[1])
		x, y := gt.CRSToWCS(cx, cy)
		return dxfcodec.Point3{X: x, Y: y}
	}
	var items []*dxfcodec.Entity
	for _, g := range collection {
		switch shape := g.(type) {
		case orb.Point:
			items = append(items, &dxfcodec.Entity{
				Type:   "POINT",
				Points: []dxfcodec.Point3{toLocal(shape)},
			})
		case orb.LineString:
			points := make([]dxfcodec.Point3, len(shape))
			for i, p := range shape {
				points[i] = toLocal(p)
			}
			items = append(items, &dxfcodec.Entity{Type: "LWPOLYLINE", Points: points})
		case orb.Polygon:
			if len(shape) == 0 {
				continue
			}
			ring := shape[0]
			points := make([]dxfcodec.Point3, 0, len(ring))
			for i, p := range ring {
				// the stored ring repeats the first point
				if i == len(ring)-1 && len(ring) > 1 && p == ring[0] {
					break
				}
				points = append(points, toLocal(p))
			}
			items = append(items, &dxfcodec.Entity{Type: "LWPOLYLINE", Points: points, Closed: true})
		}
	}
	return items
}

// inheritSiblingAttributes seeds a freshly added insertion with the
// attribute keys of another insertion of the same block, so edits can fill
// in values the DXF template defines.
func (s *InsertionService) inheritSiblingAttributes(tx *gorm.DB, e *models.Entity) error {
	if e.BlockID == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&models.EntityData{}).Where("entity_id = ?", e.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	var sibling models.Entity
	err := tx.Where("block_id = ? AND id <> ?", *e.BlockID, e.ID).Order("id").First(&sibling).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	var data []models.EntityData
	if err := tx.Where("entity_id = ?", sibling.ID).Find(&data).Error; err != nil {
		return err
	}
	for _, row := range data {
		clone := models.EntityData{EntityID: e.ID, Key: row.Key, Value: row.Value}
		if err := tx.Create(&clone).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one insertion entity and its attributes. Extraction-owned
// entities are deleted the same way, the caller decides what is deletable.
func (s *InsertionService) Delete(e *models.Entity) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entity_id = ?", e.ID).Delete(&models.EntityData{}).Error; err != nil {
			return err
		}
		return tx.Delete(e).Error
	})
}

// PrepareDXFToDownload writes every still-pending added insertion into the
// drawing's DXF file and clears their added flag. Returns the number of
// insertions written.
func (s *InsertionService) PrepareDXFToDownload(d *models.Drawing) (int, error) {
	written := 0
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var blockIDs []uint
		if err := tx.Model(&models.Layer{}).
			Where("drawing_id = ? AND is_block = ?", d.ID, true).
			Pluck("id", &blockIDs).Error; err != nil {
			return err
		}
		if len(blockIDs) == 0 {
			return nil
		}
		var candidates []models.Entity
		if err := tx.Preload("Layer").Preload("Block").Preload("Related").
			Where("block_id IN ?", blockIDs).
			Find(&candidates).Error; err != nil {
			return err
		}
		var pending []models.Entity
		for _, e := range candidates {
			if e.Added() {
				pending = append(pending, e)
			}
		}
		if len(pending) == 0 {
			return nil
		}

		transforms, err := Transformer.PrepareTransformers(d)
		if err != nil {
			return err
		}
		doc, err := dxfcodec.ParseFile(d.Dxf)
		if err != nil {
			return err
		}
		if doc.Geodata == nil {
			transforms.FakeGeodata(doc, d)
		}
		gt := Transformer.FromGeodata(doc.Geodata)

		for i := range pending {
			e := &pending[i]
			if err := s.appendInsertion(doc, e, gt, transforms.Proj); err != nil {
				return err
			}
			e.Data["added"] = "false"
			if err := tx.Save(e).Error; err != nil {
				return err
			}
			written++
		}
		return doc.SaveAs(d.Dxf)
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// appendInsertion serializes one added insertion as an INSERT with its
// attributes, creating the target layer record if the file lacks it.
func (s *InsertionService) appendInsertion(doc *dxfcodec.Document, e *models.Entity, gt Transformer.GeoTransform, proj Transformer.Projection) error {
	lon, lat, ok := e.InsertionPoint()
	if !ok {
		return ErrNotInsertion
	}
	cx, cy := proj.FromWGS84(lon, lat)
	ix, iy := gt.CRSToWCS(cx, cy)

	layerName := "0"
	if e.Layer != nil {
		layerName = e.Layer.Name
		if doc.QueryLayer(layerName) == nil {
			doc.EnsureLayer(layerName, methods.HexToRGB(e.Layer.ColorField))
		}
	}
	ins := &dxfcodec.Entity{
		Type:     "INSERT",
		Layer:    layerName,
		Name:     e.Block.Name,
		Insert:   dxfcodec.Point3{X: ix, Y: iy},
		XScale:   scaleOrOne(e.XScale),
		YScale:   scaleOrOne(e.YScale),
		ZScale:   1,
		Rotation: e.Rotation,
	}
	for _, row := range e.Related {
		ins.Attribs = append(ins.Attribs, dxfcodec.Attrib{Tag: row.Key, Text: row.Value})
	}
	doc.AppendEntity(ins)
	return nil
}
