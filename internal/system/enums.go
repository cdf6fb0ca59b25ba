package system

import "strings"

// OSFamily is the broad operating-system family of a classified audit file.
type OSFamily string

const (
	OSWindows   OSFamily = "Windows"
	OSLinux     OSFamily = "Linux"
	OSDarwin    OSFamily = "Darwin"
	OSOther     OSFamily = "Other"
	OSUndefined OSFamily = "Undefined"
)

// OSFamilyFromString normalizes a free-form string to an OSFamily. It is the
// only place case-insensitive matching happens; internal code compares the
// closed enum values directly.
func OSFamilyFromString(s string) OSFamily {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows":
		return OSWindows
	case "linux":
		return OSLinux
	case "darwin", "macos":
		return OSDarwin
	case "", "undefined":
		return OSUndefined
	default:
		return OSOther
	}
}

// DistroFamily is the package-manager lineage of a Linux system. It is only
// meaningful when OSFamily is Linux.
type DistroFamily string

const (
	DistroDeb   DistroFamily = "deb"
	DistroRPM   DistroFamily = "rpm"
	DistroAPK   DistroFamily = "apk"
	DistroOther DistroFamily = "other"
)

// DistroFamilyFromString normalizes a free-form string to a DistroFamily.
func DistroFamilyFromString(s string) DistroFamily {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "deb", "debian":
		return DistroDeb
	case "rpm", "redhat":
		return DistroRPM
	case "apk", "alpine":
		return DistroAPK
	default:
		return DistroOther
	}
}

// Producer identifies which collector script generated an audit dump.
type Producer string

const (
	ProducerKPNix Producer = "KPNIXAUDIT"
	ProducerKPWin Producer = "KPWINAUDIT"
	ProducerKPMac Producer = "KPMACAUDIT"
	ProducerOther Producer = "Other"
)

// ProducerFromString normalizes a free-form string to a Producer.
func ProducerFromString(s string) Producer {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "KPNIXAUDIT":
		return ProducerKPNix
	case "KPWINAUDIT":
		return ProducerKPWin
	case "KPMACAUDIT":
		return ProducerKPMac
	default:
		return ProducerOther
	}
}
