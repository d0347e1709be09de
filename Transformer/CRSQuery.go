package Transformer

import (
	"errors"
	"fmt"
	"math"
)

var ErrNoCandidateCRS = errors.New("no candidate CRS for point")

type CRSInfo struct {
	Code int
	Name string
}

// QueryUTMCRSInfo returns the UTM zone candidates whose area of interest
// covers the degenerate bounding box collapsed onto one WGS84 point, best
// fit first. Valid coordinates always yield exactly one candidate.
func QueryUTMCRSInfo(lon, lat float64) ([]CRSInfo, error) {
	if math.IsNaN(lon) || math.IsNaN(lat) ||
		lon < -180 || lon > 180 || lat < -80 || lat > 84 {
		return nil, ErrNoCandidateCRS
	}
	zone := int(math.Floor((lon+180)/6)) + 1
	if zone < 1 {
		zone = 1
	}
	if zone > 60 {
		zone = 60
	}
	hemisphere := "N"
	code := 32600 + zone
	if lat < 0 {
		hemisphere = "S"
		code = 32700 + zone
	}
	return []CRSInfo{
		{
			Code: code,
			Name: fmt.Sprintf("WGS 84 / UTM zone %d%s", zone, hemisphere),
		},
	}, nil
}
