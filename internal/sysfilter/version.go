package sysfilter

import (
	"strconv"
	"strings"
)

// minComponents is the minimum number of dotted components a version string
// is padded to before comparison, so "1.2" and "1.2.0" compare equal.
const minComponents = 3

// parseVersion splits v on dots into integer components. It fails if any
// component is not a plain integer.
func parseVersion(v string) ([]int, bool) {
	parts := strings.Split(strings.TrimSpace(v), ".")
	comps := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, false
		}
		comps = append(comps, n)
	}
	if len(comps) == 0 {
		return nil, false
	}
	return comps, true
}

// compareVersions compares two dotted version strings component-wise as
// integer tuples, padding missing trailing components with zero. It returns
// ok=false when either side fails to parse, in which case the caller falls
// back to lexical comparison.
func compareVersions(a, b string) (int, bool) {
	av, ok := parseVersion(a)
	if !ok {
		return 0, false
	}
	bv, ok := parseVersion(b)
	if !ok {
		return 0, false
	}

	width := max(max(len(av), len(bv)), minComponents)
	for i := 0; i < width; i++ {
		var ac, bc int
		if i < len(av) {
			ac = av[i]
		}
		if i < len(bv) {
			bc = bv[i]
		}
		switch {
		case ac < bc:
			return -1, true
		case ac > bc:
			return 1, true
		}
	}
	return 0, true
}
