package methods

import (
	"fmt"
	"math"
)

// defaultColors is the 256-entry AutoCAD Color Index palette as packed
// 0xRRGGBB values. Indexes 1-9 and 250-255 are fixed, 10-249 follow the
// standard hue/brightness grid and are generated once at init.
var defaultColors [256]int

func init() {
	fixed := map[int]int{
		0:   0x000000,
		1:   0xFF0000,
		2:   0xFFFF00,
		3:   0x00FF00,
		4:   0x00FFFF,
		5:   0x0000FF,
		6:   0xFF00FF,
		7:   0xFFFFFF,
		8:   0x414141,
		9:   0x808080,
		250: 0x333333,
		251: 0x505050,
		252: 0x696969,
		253: 0x828282,
		254: 0xBEBEBE,
		255: 0xFFFFFF,
	}
	for idx, rgb := range fixed {
		defaultColors[idx] = rgb
	}
	values := []float64{255, 189, 129, 104, 79}
	for c := 10; c <= 249; c++ {
		hue := float64((c-10)/10) * 15
		i := (c - 10) % 10
		v := values[i/2]
		s := 1.0
		if i%2 == 1 {
			s = 1.0 / 3.0
		}
		defaultColors[c] = hsvToRGB(hue, s, v)
	}
}

func hsvToRGB(h, s, v float64) int {
	c := v * s
	m := v - c
	hp := math.Mod(h, 360) / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return int(r+m)<<16 | int(g+m)<<8 | int(b+m)
}

// Cad2Hex renders a layer color as a CSS hex string. True colors come in as
// RGB channel triples and render lowercase, ACI indexes go through the
// default palette and render uppercase.
func Cad2Hex(rgb *[3]uint8, aci int) string {
	if rgb != nil {
		return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
	}
	if aci < 0 {
		// negative index means the layer is switched off, color still applies
		aci = -aci
	}
	if aci > 255 {
		aci = 7
	}
	return fmt.Sprintf("#%06X", defaultColors[aci])
}
