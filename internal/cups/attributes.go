package cups

import (
	"strconv"
	"strings"
)

// Attributes holds the IPP attributes of one queue keyed by attribute name.
type Attributes map[string][]string

// Has reports whether the attribute was returned.
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// String returns the first value of key, or "".
func (a Attributes) String(key string) string {
	if values := a[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// StringOr returns the first value of key, or fallback when absent.
func (a Attributes) StringOr(key, fallback string) string {
	if !a.Has(key) {
		return fallback
	}
	return a.String(key)
}

// Strings returns every value of key.
func (a Attributes) Strings(key string) []string {
	return append([]string(nil), a[key]...)
}

// Bool interprets the first value of key as an IPP boolean.
func (a Attributes) Bool(key string) bool {
	return strings.EqualFold(a.String(key), "true")
}

// Int interprets the first value of key as an integer, returning 0 when it is not numeric.
func (a Attributes) Int(key string) int {
	n, err := strconv.Atoi(a.String(key))
	if err != nil {
		return 0
	}
	return n
}

var printerStateNames = map[string]int{
	"idle":       3,
	"processing": 4,
	"stopped":    5,
}

// PrinterState returns the printer-state enum, accepting both the numeric and
// keyword renderings.
func (a Attributes) PrinterState() int {
	raw := strings.ToLower(a.String(AttrState))
	if n, ok := printerStateNames[raw]; ok {
		return n
	}
	return a.Int(AttrState)
}
