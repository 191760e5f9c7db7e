package models

import "strings"

// PlugType identifies a charging connector standard. The set is open-ended:
// canonical constants cover the common standards, and unrecognized values
// from the data source are preserved verbatim so new connector types surface
// without a code change.
type PlugType string

const (
	PlugCCS     PlugType = "CCS"
	PlugCHAdeMO PlugType = "CHAdeMO"
	PlugType2   PlugType = "Type 2"
	PlugJ1772   PlugType = "J-1772"
	PlugTesla   PlugType = "Tesla"
)

var plugAliases = map[string]PlugType{
	"ccs":                PlugCCS,
	"chademo":            PlugCHAdeMO,
	"type 2":             PlugType2,
	"type2":              PlugType2,
	"j-1772":             PlugJ1772,
	"j1772":              PlugJ1772,
	"tesla":              PlugTesla,
	"tesla supercharger": PlugTesla,
}

// NormalizePlugType maps known aliases to their canonical constant and keeps
// anything else as-is.
func NormalizePlugType(raw string) PlugType {
	trimmed := strings.TrimSpace(raw)
	if canonical, ok := plugAliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return PlugType(trimmed)
}
