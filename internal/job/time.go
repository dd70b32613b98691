package job

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSeconds converts a timestamp in "HH:MM:SS", "MM:SS" or plain
// seconds form into seconds. Components fold left to right as
// acc*60+value, which handles all three shapes uniformly.
func ParseSeconds(ts string) (float64, error) {
	parts := strings.Split(ts, ":")
	var acc float64
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid time component %q in %q: %w", part, ts, err)
		}
		acc = acc*60 + v
	}
	return acc, nil
}

// FormatSeconds renders a seconds value the way it is passed to filter
// arguments: no exponent, no trailing zeros.
func FormatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
