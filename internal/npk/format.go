package npk

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// dollarString renders a price for display. Zero means the price is
// unknown (no instance selected yet, no benchmark) and renders as the
// placeholder.
func dollarString(amount float64) string {
	if amount == 0 {
		return "$?.??"
	}
	return fmt.Sprintf("$%.2f", amount)
}

// hashesPerSecond renders a raw hash-rate figure with a unit scaled by
// digit count. The pricing API reports "-" or "?" for families without
// a benchmark.
func hashesPerSecond(rate string) string {
	if rate == "-" || rate == "?" {
		return "???"
	}

	n, err := strconv.Atoi(strings.TrimSpace(rate))
	if err != nil {
		return "???"
	}

	scale := func(div float64) string {
		return strconv.FormatFloat(math.Round(float64(n)/div)/100, 'f', -1, 64)
	}

	switch digits := len(strconv.Itoa(n)); {
	case digits < 4:
		return fmt.Sprintf("%d h/s", n)
	case digits < 7:
		return scale(10) + " Kh/s"
	case digits < 10:
		return scale(10000) + " Mh/s"
	case digits < 13:
		return scale(10000000) + " Gh/s"
	default:
		return ""
	}
}
