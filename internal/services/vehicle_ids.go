package services

import "strings"

// Raw vehicle values that mean "no vehicle assigned".
var noVehicleValues = map[string]struct{}{
	"nan":  {},
	"none": {},
	"":     {},
	"#n/a": {},
	"na":   {},
}

// NormalizeVehicleID canonicalizes a raw vehicle number.
// "123" -> prefix+"0123", "1234.0" -> prefix+"1234"; other shapes pass through trimmed.
// ok is false for empty or sentinel values, which must not be stored.
func NormalizeVehicleID(raw string, prefix string) (id string, ok bool) {
	v := strings.TrimSpace(raw)
	v = strings.TrimSpace(strings.TrimSuffix(v, ".0"))
	if _, none := noVehicleValues[strings.ToLower(v)]; none {
		return "", false
	}

	if len(v) == 3 && isDigits(v) {
		v = "0" + v
	}
	if len(v) == 4 && isDigits(v) {
		return prefix + v, true
	}
	return v, true
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
