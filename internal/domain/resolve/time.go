package resolve

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// clockPattern matches "MM:SS" with an optional fractional part. Minutes
// may exceed 59 since long matches are tagged without an hour field.
var clockPattern = regexp.MustCompile(`^\s*(\d+):(\d+)(?:\.(\d+))?\s*$`)

// ParseSeconds turns the two time encodings found in exports into seconds.
//
// A numeric timestamp wins when it parses. Otherwise clock is tried as
// "MM:SS[.fraction]" and finally as a bare number. Negative and non-finite
// values never count as parsed.
func ParseSeconds(timestamp, clock string) (float64, error) {
	if sec, ok := parseFloat(timestamp); ok {
		return sec, nil
	}

	if strings.TrimSpace(clock) != "" {
		if m := clockPattern.FindStringSubmatch(clock); m != nil {
			return clockSeconds(m[1], m[2], m[3])
		}
		if sec, ok := parseFloat(clock); ok {
			return sec, nil
		}
	}

	return 0, fmt.Errorf("%w: timestamp=%q time=%q", ErrUnparsableTime, timestamp, clock)
}

func clockSeconds(mm, ss, frac string) (float64, error) {
	minutes, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: minutes %q: %w", ErrUnparsableTime, mm, err)
	}
	seconds, err := strconv.Atoi(ss)
	if err != nil {
		return 0, fmt.Errorf("%w: seconds %q: %w", ErrUnparsableTime, ss, err)
	}

	total := float64(minutes*60 + seconds)
	if frac != "" {
		f, err := strconv.ParseFloat("0."+frac, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: fraction %q: %w", ErrUnparsableTime, frac, err)
		}
		total += f
	}
	return total, nil
}

// parseFloat accepts decimal notation only; hex floats such as "0x1p4" are
// rejected.
func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "xX") {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}
