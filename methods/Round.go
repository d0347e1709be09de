package methods

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// FormatNum renders a metric value the way it lands in CSV cells and
// attribute rows, trailing zeros trimmed.
func FormatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HexToRGB parses a #rrggbb color string.
func HexToRGB(s string) *[3]uint8 {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return nil
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return nil
	}
	return &[3]uint8{r, g, b}
}
