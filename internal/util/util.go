// Package util provides small helpers shared by the input adapters and hosts.
package util

import (
	"fmt"
	"strconv"
	"strings"
)

// TrimQuotes removes leading and trailing double quotes from a string.
func TrimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// ParseFloatArg parses a possibly quoted float argument.
func ParseFloatArg(s string) (float64, error) {
	v, err := strconv.ParseFloat(TrimQuotes(strings.TrimSpace(s)), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

// ParseCoords reads the first two arguments as an x, y pair.
func ParseCoords(args []string) (x, y float64, err error) {
	if len(args) < 2 {
		return 0, 0, fmt.Errorf("expected x y, got %d args", len(args))
	}
	if x, err = ParseFloatArg(args[0]); err != nil {
		return 0, 0, err
	}
	if y, err = ParseFloatArg(args[1]); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

// FormatTooltip builds the display line for a hotspot.
// Format: "Label: Message [type]" with empty parts omitted.
func FormatTooltip(label, message, typ string) string {
	var b strings.Builder
	if label != "" {
		b.WriteString(label)
		if message != "" {
			b.WriteString(": ")
		}
	}
	b.WriteString(message)
	if typ != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('[')
		b.WriteString(typ)
		b.WriteByte(']')
	}
	return b.String()
}
