package models

import (
	"encoding/json"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/datatypes"
)

// Drawing is one uploaded CAD source file plus its georeferencing state.
// EPSG stays nil until one of the three resolution branches succeeds.
type Drawing struct {
	ID       uint           `gorm:"primaryKey" json:"id"`
	Title    string         `gorm:"type:varchar(255)" json:"title"`
	Dxf      string         `gorm:"type:varchar(255)" json:"dxf"`
	Image    string         `gorm:"type:varchar(255)" json:"image"`
	Geom     datatypes.JSON `json:"geom"`
	DesignX  float64        `json:"designx"`
	DesignY  float64        `json:"designy"`
	Rotation float64        `json:"rotation"`
	EPSG     *int           `gorm:"column:epsg" json:"epsg"`

	// ParentID is a one-shot resolve-from command, consumed during save and
	// never persisted.
	ParentID *uint `gorm:"-" json:"parentId,omitempty"`

	snapshot *DrawingSnapshot `gorm:"-"`
}

// DrawingSnapshot holds the georeferencing-relevant field values as they were
// when the drawing was loaded. Save compares against it field by field to
// decide which re-extraction trigger fired.
type DrawingSnapshot struct {
	Dxf      string
	Geom     string
	DesignX  float64
	DesignY  float64
	Rotation float64
}

func (d *Drawing) TakeSnapshot() {
	d.snapshot = &DrawingSnapshot{
		Dxf:      d.Dxf,
		Geom:     string(d.Geom),
		DesignX:  d.DesignX,
		DesignY:  d.DesignY,
		Rotation: d.Rotation,
	}
}

func (d *Drawing) Snapshot() *DrawingSnapshot {
	return d.snapshot
}

func (d *Drawing) GeomChanged() bool {
	return d.snapshot != nil && d.snapshot.Geom != string(d.Geom)
}

func (d *Drawing) DxfChanged() bool {
	return d.snapshot != nil && d.snapshot.Dxf != d.Dxf
}

func (d *Drawing) DesignChanged() bool {
	return d.snapshot != nil &&
		(d.snapshot.DesignX != d.DesignX ||
			d.snapshot.DesignY != d.DesignY ||
			d.snapshot.Rotation != d.Rotation)
}

// GeomPoint decodes the stored GeoJSON origin point.
func (d *Drawing) GeomPoint() (orb.Point, bool) {
	if len(d.Geom) == 0 {
		return orb.Point{}, false
	}
	geo, err := geojson.UnmarshalGeometry(d.Geom)
	if err != nil {
		return orb.Point{}, false
	}
	point, ok := geo.Geometry().(orb.Point)
	return point, ok
}

func (d *Drawing) SetGeomPoint(lon, lat float64) {
	data, _ := json.Marshal(geojson.NewGeometry(orb.Point{lon, lat}))
	d.Geom = data
}

type DrawingPopup struct {
	Content string `json:"content"`
}

// PopupContent renders the map popup for the drawing marker.
func (d *Drawing) PopupContent() DrawingPopup {
	policy := bluemonday.StrictPolicy()
	title := fmt.Sprintf("<a href=\"/geocad/drawing/%d\"><strong>%s</strong></a>", d.ID, policy.Sanitize(d.Title))
	if d.Image == "" {
		return DrawingPopup{Content: title}
	}
	image := fmt.Sprintf("<img src=\"%s\">", d.Image)
	return DrawingPopup{Content: image + "<br>" + title}
}
