// Package gnss contains common constants and type definitions.
package gnss

import "strings"

// System is a satellite system.
type System int

// Available satellite systems.
const (
	SysGPS System = iota + 1
	SysGLO
	SysGAL
	SysQZSS
	SysBDS
	SysNavIC
	SysSBAS
	SysMIXED
)

func (sys System) String() string {
	return [...]string{"", "GPS", "GLO", "GAL", "QZSS", "BDS", "NavIC", "SBAS", "MIXED"}[sys]
}

// Abbr returns the systems' one letter abbreviation used in RINEX.
func (sys System) Abbr() string {
	return [...]string{"", "G", "R", "E", "J", "C", "I", "S", "M"}[sys]
}

// SystemFromAbbr returns the system for its RINEX abbreviation.
func SystemFromAbbr(abbr string) (System, bool) {
	for sys := SysGPS; sys <= SysMIXED; sys++ {
		if sys.Abbr() == abbr {
			return sys, true
		}
	}
	return 0, false
}

// Systems specifies a list of satellite systems.
type Systems []System

// String returns the contained systems in the manner GPS+GLO+...
func (syss Systems) String() string {
	str := make([]string, 0, len(syss))
	for _, sys := range syss {
		str = append(str, sys.String())
	}
	return strings.Join(str, "+")
}

// Contains reports whether sys is one of the contained systems.
func (syss Systems) Contains(sys System) bool {
	for _, s := range syss {
		if s == sys {
			return true
		}
	}
	return false
}
