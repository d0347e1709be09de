package Transformer

import "math"

// Projection converts between a projected CRS and WGS84 longitude/latitude.
// Both directions always use xy (easting/northing, lon/lat) axis order.
type Projection interface {
	ToWGS84(x, y float64) (lon, lat float64)
	FromWGS84(lon, lat float64) (x, y float64)
	EPSG() int
}

// ForEPSG returns a Projection for the given EPSG code, nil when the code is
// not supported. UTM zones on the WGS84 ellipsoid cover every drawing CRS
// this service resolves.
func ForEPSG(epsg int) Projection {
	switch {
	case epsg == 4326:
		return WGS84Identity{}
	case epsg >= 32601 && epsg <= 32660:
		return newUTM(epsg, epsg-32600, false)
	case epsg >= 32701 && epsg <= 32760:
		return newUTM(epsg, epsg-32700, true)
	}
	return nil
}

// WGS84Identity is a no-op projection for data already in EPSG:4326.
type WGS84Identity struct{}

func (WGS84Identity) ToWGS84(x, y float64) (lon, lat float64)   { return x, y }
func (WGS84Identity) FromWGS84(lon, lat float64) (x, y float64) { return lon, lat }
func (WGS84Identity) EPSG() int                                 { return 4326 }

// WGS84 ellipsoid
const (
	semiMajor  = 6378137.0
	flattening = 1.0 / 298.257223563
	scaleK0    = 0.9996
	falseEast  = 500000.0
	falseNorth = 10000000.0
)

// utmProjection implements the transverse Mercator projection with the
// Krüger series, millimeter-accurate inside a standard UTM zone.
type utmProjection struct {
	epsg    int
	south   bool
	lambda0 float64
	radius  float64 // rectifying radius A
	n       float64
	alpha   [3]float64
	beta    [3]float64
	delta   [3]float64
}

func newUTM(epsg, zone int, south bool) *utmProjection {
	n := flattening / (2 - flattening)
	n2 := n * n
	n3 := n2 * n
	p := &utmProjection{
		epsg:    epsg,
		south:   south,
		lambda0: float64(zone*6-183) * math.Pi / 180,
		radius:  semiMajor / (1 + n) * (1 + n2/4 + n2*n2/64),
		n:       n,
	}
	p.alpha = [3]float64{
		n/2 - 2*n2/3 + 5*n3/16,
		13*n2/48 - 3*n3/5,
		61 * n3 / 240,
	}
	p.beta = [3]float64{
		n/2 - 2*n2/3 + 37*n3/96,
		n2/48 + n3/15,
		17 * n3 / 480,
	}
	p.delta = [3]float64{
		2*n - 2*n2/3 - 2*n3,
		7*n2/3 - 8*n3/5,
		56 * n3 / 15,
	}
	return p
}

func (p *utmProjection) EPSG() int {
	return p.epsg
}

func (p *utmProjection) FromWGS84(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lambda := lon*math.Pi/180 - p.lambda0

	c := 2 * math.Sqrt(p.n) / (1 + p.n)
	t := math.Sinh(math.Atanh(math.Sin(phi)) - c*math.Atanh(c*math.Sin(phi)))
	xiP := math.Atan2(t, math.Cos(lambda))
	etaP := math.Atanh(math.Sin(lambda) / math.Sqrt(1+t*t))

	xi := xiP
	eta := etaP
	for j := 1; j <= 3; j++ {
		k := 2 * float64(j)
		xi += p.alpha[j-1] * math.Sin(k*xiP) * math.Cosh(k*etaP)
		eta += p.alpha[j-1] * math.Cos(k*xiP) * math.Sinh(k*etaP)
	}

	x = falseEast + scaleK0*p.radius*eta
	y = scaleK0 * p.radius * xi
	if p.south {
		y += falseNorth
	}
	return x, y
}

func (p *utmProjection) ToWGS84(x, y float64) (lon, lat float64) {
	if p.south {
		y -= falseNorth
	}
	xi := y / (scaleK0 * p.radius)
	eta := (x - falseEast) / (scaleK0 * p.radius)

	xiP := xi
	etaP := eta
	for j := 1; j <= 3; j++ {
		k := 2 * float64(j)
		xiP -= p.beta[j-1] * math.Sin(k*xi) * math.Cosh(k*eta)
		etaP -= p.beta[j-1] * math.Cos(k*xi) * math.Sinh(k*eta)
	}

	chi := math.Asin(math.Sin(xiP) / math.Cosh(etaP))
	phi := chi
	for j := 1; j <= 3; j++ {
		k := 2 * float64(j)
		phi += p.delta[j-1] * math.Sin(k*chi)
	}
	lambda := p.lambda0 + math.Atan2(math.Sinh(etaP), math.Cos(xiP))

	return lambda * 180 / math.Pi, phi * 180 / math.Pi
}
