package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault returns def for blank, malformed or non-positive input.
func ParseIntDefault(raw string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Clamp keeps n within [lo, hi].
func Clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
