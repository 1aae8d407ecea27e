package geometry

import "strings"

// Kind selects the construction family of a marker.
type Kind int

const (
	KindDefault Kind = iota
	KindCrystal
	KindOrbital
	KindBeacon
)

var kindNames = [...]string{
	KindDefault: "default",
	KindCrystal: "crystal",
	KindOrbital: "orbital",
	KindBeacon:  "beacon",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// ParseKind maps a shape tag to a Kind. Unknown tags report ok=false.
func ParseKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default", "classic", "":
		return KindDefault, true
	case "crystal":
		return KindCrystal, true
	case "orbital":
		return KindOrbital, true
	case "beacon":
		return KindBeacon, true
	default:
		return KindDefault, false
	}
}
