package token

import "strings"

// SysKind distinguishes system variables from system functions (spec §4.8/§6.5).
type SysKind uint8

const (
	SysVar SysKind = iota
	SysFunc
)

// SysEntry describes one ⎕-prefixed name.
type SysEntry struct {
	Name     string
	Kind     SysKind
	Index    int
	Writable bool
}

// sysNames is the case-insensitive table of spec §4.8/§6.5. Index is a
// small dense id used by VARSYS/SYSFUN1 bytecode operands.
var sysNames = []SysEntry{
	{"io", SysVar, 0, true},
	{"ct", SysVar, 1, true},
	{"pp", SysVar, 2, true},
	{"ver", SysVar, 3, false},
	{"wsid", SysVar, 4, true},
	{"ts", SysVar, 5, false},
	{"dbg", SysVar, 6, true},
	{"pid", SysVar, 7, false},
	{"a", SysVar, 8, false},
	{"d", SysVar, 9, false},
	{"ident", SysFunc, 0, false},
	{"rref", SysFunc, 1, false},
	{"lu", SysFunc, 2, false},
}

// LookupSysName resolves the letters following a ⎕ prefix, case
// insensitively, per spec §4.8.
func LookupSysName(name string) (SysEntry, bool) {
	lower := strings.ToLower(name)
	for _, e := range sysNames {
		if e.Name == lower {
			return e, true
		}
	}
	return SysEntry{}, false
}

// SysNameByIndex reverse-looks-up a VARSYS/SYSFUN1 operand for display.
func SysNameByIndex(kind SysKind, idx int) (string, bool) {
	for _, e := range sysNames {
		if e.Kind == kind && e.Index == idx {
			return e.Name, true
		}
	}
	return "", false
}
