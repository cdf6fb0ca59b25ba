package search

import "strings"

// sectionBanners are the fixed markers collector scripts print between
// sections; any line carrying one is skipped before pattern matching.
var sectionBanners = []string{
	"###[BEGIN]",
	"###[END]",
	"###Processing",
	"###Running",
}

// isNoiseLine reports whether a line is collector banner output rather than
// audit data: one of the fixed section markers, or any run of three or more
// '#' characters.
func isNoiseLine(line string) bool {
	for _, banner := range sectionBanners {
		if strings.Contains(line, banner) {
			return true
		}
	}
	return strings.Contains(line, "###")
}

// sanitize strips the control characters 0x00-0x08, 0x0B, 0x0C and
// 0x0E-0x1F, which otherwise corrupt spreadsheet export. Tab, LF and CR
// survive.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 0x00 && r <= 0x08:
			return -1
		case r == 0x0B || r == 0x0C:
			return -1
		case r >= 0x0E && r <= 0x1F:
			return -1
		}
		return r
	}, s)
}

// sanitizeFields applies sanitize to every string-valued field in place.
func sanitizeFields(f *Fields) {
	for _, k := range f.keys {
		if s, ok := f.vals[k].(string); ok {
			f.vals[k] = sanitize(s)
		}
	}
}
