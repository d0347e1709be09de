package services

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/yofu/dxf"
	"github.com/yofu/dxf/color"
	"github.com/yofu/dxf/drawing"
	"github.com/yofu/dxf/entity"
	"github.com/yofu/dxf/table"
	"gorm.io/gorm"

	"github.com/GrainArc/GeoCAD/Transformer"
	"github.com/GrainArc/GeoCAD/models"
)

// DXFExportService writes a flattened copy of a drawing's extracted
// geometry as a fresh DXF in drawing-local units. Unlike the download path
// this does not touch the stored file: blocks are already exploded into
// their layers, text and attributes are gone, only linework survives.
type DXFExportService struct {
	DB *gorm.DB
}

func NewDXFExportService(db *gorm.DB) *DXFExportService {
	return &DXFExportService{DB: db}
}

// ExportFlattened converts every non-block layer back from WGS84 into
// drawing units and writes the result to outputPath.
func (s *DXFExportService) ExportFlattened(d *models.Drawing, outputPath string) error {
	transforms, err := Transformer.PrepareTransformers(d)
	if err != nil {
		return err
	}
	gt := transforms.GeoTransform(d)

	out := dxf.NewDrawing()
	out.Header().LtScale = 1.0

	var layers []models.Layer
	if err := s.DB.Where("drawing_id = ? AND is_block = ?", d.ID, false).
		Order("id").Find(&layers).Error; err != nil {
		return err
	}
	for _, layer := range layers {
		var entities []models.Entity
		if err := s.DB.Where("layer_id = ?", layer.ID).Order("id").
			Find(&entities).Error; err != nil {
			return err
		}
		var outLayer *table.Layer
		for i := range entities {
			for _, geom := range collectionGeometries(entities[i].Geom) {
				if outLayer == nil {
					outLayer, _ = out.AddLayer(layer.Name, color.White, dxf.DefaultLineType, true)
				}
				addFlattened(out, outLayer, geom, gt, transforms.Proj)
			}
		}
	}
	return out.SaveAs(outputPath)
}

// collectionGeometries unpacks a stored GeometryCollection.
func collectionGeometries(data []byte) []orb.Geometry {
	if len(data) == 0 {
		return nil
	}
	parsed, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil
	}
	if collection, ok := parsed.Geometry().(orb.Collection); ok {
		return collection
	}
	return []orb.Geometry{parsed.Geometry()}
}

// addFlattened writes one geometry onto the given layer. Hand-built
// entities are not tagged with the current layer by AddEntity, so the
// layer is set explicitly on each one.
func addFlattened(out *drawing.Drawing, outLayer *table.Layer, geom orb.Geometry, gt Transformer.GeoTransform, proj Transformer.Projection) {
	toLocal := func(p orb.Point) (float64, float64) {
		cx, cy := proj.FromWGS84(p[0], p[1])
		return gt.CRSToWCS(cx, cy)
	}
	switch shape := geom.(type) {
	case orb.Point:
		x, y := toLocal(shape)
		out.Point(x, y, 0)
	case orb.LineString:
		lwp := entity.NewLwPolyline(len(shape))
		for i, p := range shape {
			x, y := toLocal(p)
			lwp.Vertices[i] = []float64{x, y}
		}
		lwp.SetLayer(outLayer)
		out.AddEntity(lwp)
	case orb.Polygon:
		for _, ring := range shape {
			lwp := entity.NewLwPolyline(len(ring))
			for i, p := range ring {
				x, y := toLocal(p)
				lwp.Vertices[i] = []float64{x, y}
			}
			lwp.Close()
			lwp.SetLayer(outLayer)
			out.AddEntity(lwp)
		}
	}
}
