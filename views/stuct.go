package views

// CadController groups the drawing and insertion handlers.
type CadController struct{}

// DrawingForm is the multipart payload shared by create and update. The
// file parts ("dxf", "image") are read off the request separately.
type DrawingForm struct {
	Title    string   `form:"title"`
	Long     *float64 `form:"long"`
	Lat      *float64 `form:"lat"`
	DesignX  *float64 `form:"designx"`
	DesignY  *float64 `form:"designy"`
	Rotation *float64 `form:"rotation"`
	ParentID *uint    `form:"parentId"`
}

type InsertionForm struct {
	LayerID    uint              `json:"layerId"`
	BlockID    uint              `json:"blockId"`
	Long       float64           `json:"long"`
	Lat        float64           `json:"lat"`
	Rotation   float64           `json:"rotation"`
	XScale     float64           `json:"xscale"`
	YScale     float64           `json:"yscale"`
	Attributes map[string]string `json:"attributes"`
}

type InsertionChangeForm struct {
	Long       *float64          `json:"long"`
	Lat        *float64          `json:"lat"`
	Rotation   *float64          `json:"rotation"`
	XScale     *float64          `json:"xscale"`
	YScale     *float64          `json:"yscale"`
	Attributes map[string]string `json:"attributes"`
}
