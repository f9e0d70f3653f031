package utils

import "strings"

// NormalizePlate brings a recognized plate to a canonical form: no spaces
// or dashes, upper case. ANPR feeds are inconsistent about both.
func NormalizePlate(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, " ", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	return strings.ToUpper(normalized)
}
