// Package system defines the immutable record produced when an audit dump is
// classified, plus the attribute vocabulary that sys_filter predicates
// operate on.
package system

import (
	"fmt"
	"sync/atomic"
)

// Well-known attribute names accepted in sys_filter blocks. Names not listed
// here resolve through the OS-specific attribute bag.
const (
	AttrOSFamily        = "os_family"
	AttrDistroFamily    = "distro_family"
	AttrProducer        = "producer"
	AttrProducerVersion = "producer_version"
	AttrProductName     = "product_name"
	AttrReleaseID       = "release_id"
	AttrCurrentBuild    = "current_build"
	AttrUBR             = "ubr"
	AttrOSPrettyName    = "os_pretty_name"
	AttrOSVersion       = "os_version"
)

// attrFamilies restricts OS-specific attributes to the families they make
// sense for. Attributes absent from this table apply to every family.
var attrFamilies = map[string][]OSFamily{
	AttrDistroFamily: {OSLinux},
	AttrProductName:  {OSWindows, OSDarwin},
	AttrReleaseID:    {OSWindows},
	AttrCurrentBuild: {OSWindows},
	AttrUBR:          {OSWindows},
	AttrOSPrettyName: {OSLinux},
	AttrOSVersion:    {OSDarwin},
}

// AttrApplicable reports whether attr is meaningful for the given OS family.
func AttrApplicable(attr string, fam OSFamily) bool {
	families, ok := attrFamilies[attr]
	if !ok {
		return true
	}
	for _, f := range families {
		if f == fam {
			return true
		}
	}
	return false
}

// System is one classified audit dump representing a single scanned host.
// It is created once by the classifier and never mutated afterwards.
type System struct {
	ID              string
	Name            string
	Path            string // absolute path to the audit file
	Encoding        string
	Hash            string
	OSFamily        OSFamily
	DistroFamily    DistroFamily // Linux only, empty otherwise
	Producer        Producer
	ProducerVersion string
	OSDetails       string // composed human-readable OS description

	// Attrs holds producer-specific detail fields (e.g. product_name,
	// release_id, current_build, ubr for Windows dumps).
	Attrs map[string]string
}

// Attr resolves a named attribute against the record. Enum-typed fields
// resolve to their string form; everything else falls through to the bag.
// The second return is false when the attribute has no value on this system.
func (s *System) Attr(name string) (string, bool) {
	switch name {
	case AttrOSFamily:
		return string(s.OSFamily), s.OSFamily != OSUndefined
	case AttrDistroFamily:
		return string(s.DistroFamily), s.DistroFamily != ""
	case AttrProducer:
		return string(s.Producer), true
	case AttrProducerVersion:
		return s.ProducerVersion, s.ProducerVersion != ""
	}
	v, ok := s.Attrs[name]
	return v, ok
}

var idCounter atomic.Uint64

// NextID returns a process-unique system identifier.
func NextID() string {
	return fmt.Sprintf("sys-%d", idCounter.Add(1))
}
