package layout

import (
	"strconv"
	"strings"
)

// Unit is the unit a length was written in. Bare numbers are points.
type Unit int

const (
	UnitInvalid Unit = iota - 1
	UnitPT
	UnitMM
	UnitCM
	UnitIN
)

// Conversion constants between pt and mm.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm
)

func (u Unit) String() string {
	switch u {
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	}
	return "invalid"
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ToPT converts the length to points.
func (l Length) ToPT() float64 {
	switch l.Unit {
	case UnitMM:
		return l.Value * MmToPt
	case UnitCM:
		return l.Value * 10 * MmToPt
	case UnitIN:
		return l.Value * 72
	}
	return l.Value
}

// ToMM converts the length to millimetres.
func (l Length) ToMM() float64 {
	return l.ToPT() * PtToMm
}

// ParseLength parses "12", "12pt", "10mm", "1.5cm" or "1in".
// Unparsable input yields a Length with UnitInvalid.
func ParseLength(value string) Length {
	v := strings.ToLower(strings.TrimSpace(value))
	unit := UnitPT
	for _, suf := range []struct {
		s string
		u Unit
	}{{"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			v = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return Length{Unit: UnitInvalid}
	}
	return Length{Value: f, Unit: unit}
}
