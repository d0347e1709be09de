package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/GrainArc/GeoCAD/methods"
	"github.com/microcosm-cc/bluemonday"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Layer groups geometry of one drawing. With IsBlock set the same record
// acts as a reusable block template instead of a plain CAD layer.
type Layer struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	DrawingID  uint           `gorm:"index;uniqueIndex:udx_layer_identity" json:"drawingId"`
	Drawing    *Drawing       `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Name       string         `gorm:"type:varchar(255);uniqueIndex:udx_layer_identity" json:"name"`
	ColorField string         `gorm:"type:varchar(32);default:#FFFFFF" json:"color"`
	Linetype   bool           `gorm:"default:true" json:"linetype"`
	IsBlock    bool           `gorm:"uniqueIndex:udx_layer_identity" json:"isBlock"`
	Geom       datatypes.JSON `json:"geom"`
}

// SaveUnique creates the layer, retrying exactly once with a randomized name
// suffix when the (drawing, name, is_block) unique index rejects it.
func (l *Layer) SaveUnique(db *gorm.DB) error {
	err := db.Create(l).Error
	if err == nil {
		return nil
	}
	if !IsDuplicateKey(err) {
		return err
	}
	l.ID = 0
	l.Name = fmt.Sprintf("%s_%s", l.Name, methods.RandomSuffix(7))
	return db.Create(l).Error
}

func IsDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// sqlite driver versions without error translation
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func DefaultEntityData() datatypes.JSONMap {
	return datatypes.JSONMap{"processed": "true"}
}

// Entity is one extracted feature: a layer aggregate, a classified polygon,
// or a block insertion instance.
type Entity struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	LayerID   uint           `gorm:"index" json:"layerId"`
	Layer     *Layer         `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	BlockID   *uint          `gorm:"index" json:"blockId"`
	Block     *Layer         `gorm:"foreignKey:BlockID;constraint:OnDelete:CASCADE" json:"-"`
	Geom      datatypes.JSON `json:"geom"`
	Insertion datatypes.JSON `json:"insertion"`
	XScale    float64        `gorm:"default:1" json:"xscale"`
	YScale    float64        `gorm:"default:1" json:"yscale"`
	Rotation  float64        `gorm:"default:0" json:"rotation"`
	Data      datatypes.JSONMap
	Related   []EntityData `gorm:"foreignKey:EntityID" json:"attributes"`
}

func (e *Entity) IsInsertion() bool {
	return e.BlockID != nil && len(e.Insertion) > 0
}

// Added reports the needs-geometry marker set on user-placed insertions.
func (e *Entity) Added() bool {
	if e.Data == nil {
		return false
	}
	v, ok := e.Data["added"]
	return ok && v == "true"
}

// HasAddedMarker is true whenever the insertion carries the marker key,
// regardless of its value. Geometry replay keys off the marker's presence.
func (e *Entity) HasAddedMarker() bool {
	if e.Data == nil {
		return false
	}
	_, ok := e.Data["added"]
	return ok
}

func (e *Entity) InsertionPoint() (lon, lat float64, ok bool) {
	if len(e.Insertion) == 0 {
		return 0, 0, false
	}
	geo, err := geojson.UnmarshalGeometry(e.Insertion)
	if err != nil {
		return 0, 0, false
	}
	point, isPoint := geo.Geometry().(orb.Point)
	if !isPoint {
		return 0, 0, false
	}
	return point[0], point[1], true
}

type EntityPopup struct {
	Content  string `json:"content"`
	Color    string `json:"color"`
	Linetype bool   `json:"linetype"`
	Layer    string `json:"layer"`
}

// PopupContent renders the attribute popup. Layer, Block and Related must be
// preloaded. Every DXF-sourced text value goes through the sanitizer.
func (e *Entity) PopupContent() EntityPopup {
	policy := bluemonday.StrictPolicy()
	var title string
	if e.Added() {
		title = fmt.Sprintf("<p><a href=\"/geocad/insertion/%d\">ID = %d</a></p>", e.ID, e.ID)
	} else {
		title = fmt.Sprintf("<p>ID = %d</p>", e.ID)
	}
	title += fmt.Sprintf("<ul><li>Layer: %s</li>", policy.Sanitize(e.Layer.Name))
	if e.Block != nil {
		title += fmt.Sprintf("<li>Block: %s</li>", policy.Sanitize(e.Block.Name))
	}
	data := ""
	if len(e.Related) > 0 {
		if e.Block != nil {
			data += "</ul><p>Attributes</p><ul>"
		}
		for _, ed := range e.Related {
			data += fmt.Sprintf("<li>%s = %s</li>", policy.Sanitize(ed.Key), policy.Sanitize(ed.Value))
		}
	}
	data += "</ul>"
	return EntityPopup{
		Content:  title + data,
		Color:    e.Layer.ColorField,
		Linetype: e.Layer.Linetype,
		Layer:    "Layer - " + policy.Sanitize(e.Layer.Name),
	}
}

// EntityData is one key/value descriptive attribute of an entity.
type EntityData struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	EntityID uint    `gorm:"index" json:"entityId"`
	Entity   *Entity `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Key      string  `gorm:"type:varchar(255)" json:"key"`
	Value    string  `gorm:"type:varchar(255)" json:"value"`
}

// GeometryCollectionJSON packs WGS84 geometries into the stored GeoJSON
// GeometryCollection shape shared by Layer.Geom and Entity.Geom.
func GeometryCollectionJSON(geometries []*geojson.Geometry) datatypes.JSON {
	collection := map[string]interface{}{
		"type":       "GeometryCollection",
		"geometries": geometries,
	}
	data, _ := json.Marshal(collection)
	return data
}
