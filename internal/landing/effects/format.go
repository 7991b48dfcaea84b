package effects

import "strconv"

// num renders v the way the page scripts print numbers: shortest form,
// no exponent for the ranges used here, and no negative zero.
func num(v float64) string {
	return strconv.FormatFloat(v+0, 'f', -1, 64)
}

func translateY(px float64) string {
	return "translateY(" + num(px) + "px)"
}
