package services

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/GrainArc/GeoCAD/Transformer"
	"github.com/GrainArc/GeoCAD/config"
	"github.com/GrainArc/GeoCAD/dxfcodec"
	"github.com/GrainArc/GeoCAD/models"
)

// DrawingService drives the georeferencing lifecycle of a drawing: it
// resolves the CRS from one of the three anchor sources, rewrites the DXF
// geodata when the anchor was supplied manually, and runs extraction.
type DrawingService struct {
	DB             *gorm.DB
	LayerBlacklist []string
	BlockBlacklist []string
}

func NewDrawingService(db *gorm.DB) *DrawingService {
	return &DrawingService{
		DB:             db,
		LayerBlacklist: config.LayerBlacklist,
		BlockBlacklist: config.BlockBlacklist,
	}
}

// Save persists the drawing and runs whatever part of the lifecycle the
// current state calls for. Everything runs in one transaction so a failed
// extraction never leaves the drawing half re-extracted.
func (s *DrawingService) Save(d *models.Drawing) error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		return s.save(tx, d)
	})
	if err == nil {
		d.TakeSnapshot()
	}
	return err
}

func (s *DrawingService) save(tx *gorm.DB, d *models.Drawing) error {
	if err := tx.Save(d).Error; err != nil {
		return err
	}

	if d.EPSG == nil {
		// Unresolved: try the anchor sources in priority order.
		switch {
		case d.ParentID != nil:
			if err := s.resolveFromParent(tx, d); err != nil {
				return err
			}
			return s.extract(tx, d, nil, true)
		case hasGeom(d):
			if err := s.resolveFromGeom(tx, d); err != nil {
				return err
			}
			return s.extract(tx, d, nil, true)
		default:
			doc, err := s.resolveFromDXF(tx, d)
			if err != nil {
				return err
			}
			if doc != nil {
				return s.extract(tx, d, doc, false)
			}
			log.Printf("drawing %d left unresolved: no geodata in %s", d.ID, d.Dxf)
			return nil
		}
	}

	// Resolved: each trigger independently tears down and rebuilds the
	// extracted state.
	if d.ParentID != nil {
		if err := s.deleteAllLayers(tx, d); err != nil {
			return err
		}
		if err := s.resolveFromParent(tx, d); err != nil {
			return err
		}
		return s.extract(tx, d, nil, true)
	}
	if d.GeomChanged() && hasGeom(d) {
		if err := s.deleteAllLayers(tx, d); err != nil {
			return err
		}
		// The origin may have moved into another UTM zone.
		if err := s.resolveFromGeom(tx, d); err != nil {
			return err
		}
		return s.extract(tx, d, nil, true)
	}
	if d.DxfChanged() {
		if err := s.deleteAllLayers(tx, d); err != nil {
			return err
		}
		doc, err := s.resolveFromDXF(tx, d)
		if err != nil {
			return err
		}
		if doc != nil {
			return s.extract(tx, d, doc, false)
		}
		if hasGeom(d) {
			// The replacement file carries no geodata: fall back to the
			// previous anchor and stamp it into the new file.
			return s.extract(tx, d, nil, true)
		}
		return nil
	}
	if d.DesignChanged() {
		if err := s.deleteAllLayers(tx, d); err != nil {
			return err
		}
		return s.extract(tx, d, nil, true)
	}
	return nil
}

func hasGeom(d *models.Drawing) bool {
	_, ok := d.GeomPoint()
	return ok
}

// resolveFromParent copies the parent's georeferencing and consumes the
// one-shot parent reference.
func (s *DrawingService) resolveFromParent(tx *gorm.DB, d *models.Drawing) error {
	var parent models.Drawing
	if err := tx.First(&parent, *d.ParentID).Error; err != nil {
		return err
	}
	d.Geom = parent.Geom
	d.EPSG = parent.EPSG
	d.DesignX = parent.DesignX
	d.DesignY = parent.DesignY
	d.Rotation = parent.Rotation
	d.ParentID = nil
	return tx.Save(d).Error
}

// resolveFromGeom picks the UTM zone covering the drawing's origin point.
func (s *DrawingService) resolveFromGeom(tx *gorm.DB, d *models.Drawing) error {
	point, _ := d.GeomPoint()
	candidates, err := Transformer.QueryUTMCRSInfo(point[0], point[1])
	if err != nil {
		return err
	}
	epsg := candidates[0].Code
	d.EPSG = &epsg
	return tx.Save(d).Error
}

// resolveFromDXF reads geodata out of the stored file. A missing or
// unusable GEODATA object is not an error, the drawing simply stays
// unresolved; an unreadable file is.
func (s *DrawingService) resolveFromDXF(tx *gorm.DB, d *models.Drawing) (*dxfcodec.Document, error) {
	if d.Dxf == "" {
		return nil, nil
	}
	doc, err := dxfcodec.ParseFile(d.Dxf)
	if err != nil {
		return nil, err
	}
	geodata := doc.Geodata
	if geodata == nil {
		return nil, nil
	}
	epsg, axis, err := geodata.CRS()
	if err != nil || !axis {
		log.Printf("drawing %d: geodata CRS unusable, ignoring it", d.ID)
		return nil, nil
	}
	proj := Transformer.ForEPSG(epsg)
	if proj == nil {
		log.Printf("drawing %d: geodata EPSG %d unsupported, ignoring it", d.ID, epsg)
		return nil, nil
	}
	lon, lat := proj.ToWGS84(geodata.ReferencePoint.X, geodata.ReferencePoint.Y)
	d.SetGeomPoint(lon, lat)
	d.EPSG = &epsg
	d.DesignX = geodata.DesignPoint.X
	d.DesignY = geodata.DesignPoint.Y
	d.Rotation = Transformer.RotationFromNorth(geodata.NorthDirection[0], geodata.NorthDirection[1])
	if err := tx.Save(d).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

// extract converts the DXF into layers and entities. With refresh set the
// stored file's geodata is overwritten from the drawing's own anchor first,
// so the file and the database always agree.
func (s *DrawingService) extract(tx *gorm.DB, d *models.Drawing, doc *dxfcodec.Document, refresh bool) error {
	transforms, err := Transformer.PrepareTransformers(d)
	if err != nil {
		return err
	}
	if doc == nil {
		doc, err = dxfcodec.ParseFile(d.Dxf)
		if err != nil {
			return err
		}
	}
	if refresh || doc.Geodata == nil {
		transforms.FakeGeodata(doc, d)
		if err := doc.SaveAs(d.Dxf); err != nil {
			return err
		}
	}
	gt := Transformer.FromGeodata(doc.Geodata)
	extractor := &ExtractService{
		DB:             tx,
		LayerBlacklist: s.LayerBlacklist,
		BlockBlacklist: s.BlockBlacklist,
	}
	return extractor.Extract(d, doc, gt, transforms.Proj)
}

// deleteAllLayers tears down every extracted layer and entity of the
// drawing. The cascade is spelled out so it behaves the same on every
// backend.
func (s *DrawingService) deleteAllLayers(tx *gorm.DB, d *models.Drawing) error {
	var layerIDs []uint
	if err := tx.Model(&models.Layer{}).Where("drawing_id = ?", d.ID).Pluck("id", &layerIDs).Error; err != nil {
		return err
	}
	if len(layerIDs) == 0 {
		return nil
	}
	var entityIDs []uint
	if err := tx.Model(&models.Entity{}).
		Where("layer_id IN ? OR block_id IN ?", layerIDs, layerIDs).
		Pluck("id", &entityIDs).Error; err != nil {
		return err
	}
	if len(entityIDs) > 0 {
		if err := tx.Where("entity_id IN ?", entityIDs).Delete(&models.EntityData{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", entityIDs).Delete(&models.Entity{}).Error; err != nil {
			return err
		}
	}
	return tx.Where("drawing_id = ?", d.ID).Delete(&models.Layer{}).Error
}

// Delete removes the drawing and everything extracted from it.
func (s *DrawingService) Delete(d *models.Drawing) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := s.deleteAllLayers(tx, d); err != nil {
			return err
		}
		return tx.Delete(d).Error
	})
}

// Get loads a drawing and takes its change-detection snapshot.
func (s *DrawingService) Get(id uint) (*models.Drawing, error) {
	var d models.Drawing
	if err := s.DB.First(&d, id).Error; err != nil {
		return nil, err
	}
	d.TakeSnapshot()
	return &d, nil
}

var ErrDrawingUnresolved = errors.New("drawing has no resolved CRS")
