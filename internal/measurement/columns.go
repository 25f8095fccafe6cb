// Package measurement holds the in-memory representation of a solar and
// meteorological sensor export: an immutable column-oriented Table, the
// fixed column vocabulary, and the CSV loader that produces tables.
package measurement

// Recognised column names. Sensor exports may carry additional columns
// (BP, WSstdev, Comments, ...); those are kept but never required.
const (
	Timestamp = "Timestamp"
	GHI       = "GHI"
	DNI       = "DNI"
	DHI       = "DHI"
	ModA      = "ModA"
	ModB      = "ModB"
	WS        = "WS"
	WSgust    = "WSgust"
	WD        = "WD"
	RH        = "RH"
	Tamb      = "Tamb"

	// Cleaning is the derived per-row flag added by the cleaner.
	Cleaning = "Cleaning"
)

// Vocabulary lists every recognised column in canonical order.
var Vocabulary = []string{Timestamp, GHI, DNI, DHI, ModA, ModB, WS, WSgust, WD, RH, Tamb}

// Units maps recognised measurement columns to their display unit.
var Units = map[string]string{
	GHI:    "W/m²",
	DNI:    "W/m²",
	DHI:    "W/m²",
	ModA:   "W/m²",
	ModB:   "W/m²",
	WS:     "m/s",
	WSgust: "m/s",
	WD:     "°",
	RH:     "%",
	Tamb:   "°C",
}

// IsRecognised reports whether name is part of the vocabulary.
func IsRecognised(name string) bool {
	for _, c := range Vocabulary {
		if c == name {
			return true
		}
	}
	return false
}

// Label returns "name (unit)" for recognised columns and name otherwise.
func Label(name string) string {
	if u, ok := Units[name]; ok {
		return name + " (" + u + ")"
	}
	return name
}
