package command

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Short-scale names matching the game's own number formatter.
var scaleNames = []string{
	"million", "billion", "trillion", "quadrillion", "quintillion",
	"sextillion", "septillion", "octillion", "nonillion", "decillion",
}

// Beautify renders a count the way the game shows it: grouped digits
// below a million, three decimals and a short-scale name above, and
// scientific notation beyond the named scales.
func Beautify(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "0"
	}

	neg := ""
	if n < 0 {
		neg = "-"
		n = -n
	}

	if n < 1e6 {
		return neg + group(int64(math.Round(n)))
	}

	value := n / 1e6
	scale := 0
	for value >= 1000 && scale < len(scaleNames)-1 {
		value /= 1000
		scale++
	}
	if value >= 1000 {
		return neg + fmt.Sprintf("%.3e", n)
	}
	return neg + fmt.Sprintf("%.3f %s", value, scaleNames[scale])
}

// group inserts thousands separators.
func group(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
