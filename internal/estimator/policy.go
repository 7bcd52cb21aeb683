// internal/estimator/policy.go
package estimator

import (
	"slices"
	"strconv"
	"strings"
)

// IsHidden reports whether an element is excluded from extent aggregation.
// Any one of the conditions is enough.
func IsHidden(style Style, offsetHeight float64) bool {
	switch {
	case strings.TrimSpace(style.Display) == "none":
		return true
	case strings.TrimSpace(style.Visibility) == "hidden":
		return true
	case strings.TrimSpace(style.Opacity) == "0":
		return true
	case offsetHeight == 0:
		return true
	}
	return false
}

// LayoutTag returns the configured layout type a display value maps to. The
// whole value is tried first, then each space-separated keyword in order, so
// "inline flex" resolves to "flex" when "inline" is not configured.
func LayoutTag(display string, layoutTypes []string) (string, bool) {
	display = strings.TrimSpace(display)
	if display == "" {
		return "", false
	}
	if slices.Contains(layoutTypes, display) {
		return display, true
	}
	for _, keyword := range strings.Fields(display) {
		if slices.Contains(layoutTypes, keyword) {
			return keyword, true
		}
	}
	return "", false
}

// NeedsDeepMeasure decides whether a child's subtree must be measured
// recursively instead of trusting its offset height. depth is the parent's
// depth. style and offsetHeight are the child's, already read by the caller;
// the scroll height is only read for fixed-height block children.
func NeedsDeepMeasure(host Host, child Element, style Style, offsetHeight float64, depth int, cfg Config) (bool, error) {
	// Recursing into the child would put its own children past MaxDepth.
	if depth >= cfg.MaxDepth-1 {
		return false, nil
	}

	tag, ok := LayoutTag(style.Display, cfg.LayoutTypes)
	if !ok {
		return false, nil
	}

	switch tag {
	case LayoutGrid, LayoutFlex:
		return true, nil
	case LayoutBlock:
		if !hasFixedHeight(style.Height) {
			return false, nil
		}
		scrollHeight, err := host.ScrollHeight(child)
		if err != nil {
			return false, err
		}
		return scrollHeight > offsetHeight, nil
	default:
		return false, nil
	}
}

// hasFixedHeight is true for any height other than empty, auto or a percentage.
func hasFixedHeight(height string) bool {
	height = strings.TrimSpace(height)
	if height == "" || height == "auto" {
		return false
	}
	return !strings.HasSuffix(height, "%")
}

// ParseLength reads the leading number of a CSS length ("12.5px" -> 12.5).
// Absent or unparsable values are 0.
func ParseLength(value string) float64 {
	s := strings.TrimSpace(value)
	end := numericPrefix(s)
	if end == 0 {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

// numericPrefix returns the length of the longest prefix of s that forms a
// decimal number with optional sign, fraction and exponent.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		frac := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			frac++
		}
		if frac > 0 || digits > 0 {
			i = j
			digits += frac
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		exp := 0
		for j < len(s) && isDigit(s[j]) {
			j++
			exp++
		}
		if exp > 0 {
			i = j
		}
	}
	return i
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
