package util

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatClock renders a second count as m:ss, or h:mm:ss past the hour mark.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h := total / 3600
	m := (total % 3600) / 60
	s := total % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ParseFrameRate parses an ffprobe rational frame rate such as "30000/1001".
// A plain decimal value is accepted too. Returns 0 on anything unparseable.
func ParseFrameRate(s string) float64 {
	if !strings.Contains(s, "/") {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return v
	}
	parts := strings.SplitN(s, "/", 2)
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
