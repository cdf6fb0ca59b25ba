package classify

import (
	"fmt"
	"regexp"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/system"
)

// producerSigs are the collector signature lines, line-start anchored and
// case-insensitive. The first one that matches decides the producer.
var producerSigs = []struct {
	producer system.Producer
	family   system.OSFamily
	re       *regexp.Regexp
}{
	{system.ProducerKPNix, system.OSLinux, regexp.MustCompile(`(?i)^KPNIXVERSION:\s*(?P<version>[0-9][0-9.]*)`)},
	{system.ProducerKPWin, system.OSWindows, regexp.MustCompile(`(?i)^KPWINVERSION:\s*(?P<version>[0-9][0-9.]*)`)},
	{system.ProducerKPMac, system.OSDarwin, regexp.MustCompile(`(?i)^KPMACVERSION:\s*(?P<version>[0-9][0-9.]*)`)},
}

type producerMatch struct {
	producer system.Producer
	family   system.OSFamily
	version  string
}

func matchProducer(line string) (producerMatch, bool) {
	for _, sig := range producerSigs {
		m := sig.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return producerMatch{producer: sig.producer, family: sig.family, version: m[1]}, true
	}
	return producerMatch{}, false
}

// detailTable describes how OS details are extracted for one producer. Every
// required group must be captured before the record reports any details.
type detailTable struct {
	required []string
	patterns []*regexp.Regexp
	compose  func(attrs map[string]string) string
}

var detailTables = map[system.Producer]detailTable{
	system.ProducerKPWin: {
		required: []string{
			system.AttrProductName,
			system.AttrReleaseID,
			system.AttrCurrentBuild,
			system.AttrUBR,
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^System_OSInfo::ProductName\s*:\s*(?P<product_name>\S.*?)\s*$`),
			regexp.MustCompile(`(?i)^System_OSInfo::ReleaseId\s*:\s*(?P<release_id>\S+)`),
			regexp.MustCompile(`(?i)^System_OSInfo::CurrentBuild\s*:\s*(?P<current_build>\d+)`),
			regexp.MustCompile(`(?i)^System_OSInfo::UBR\s*:\s*(?P<ubr>\d+)`),
		},
		compose: func(attrs map[string]string) string {
			return fmt.Sprintf("%s (release %s, build %s.%s)",
				attrs[system.AttrProductName],
				attrs[system.AttrReleaseID],
				attrs[system.AttrCurrentBuild],
				attrs[system.AttrUBR])
		},
	},
	system.ProducerKPNix: {
		required: []string{system.AttrOSPrettyName},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^System_VersionInformation::/etc/os-release:PRETTY_NAME="?(?P<os_pretty_name>[^"]+)"?\s*$`),
		},
		compose: func(attrs map[string]string) string {
			return attrs[system.AttrOSPrettyName]
		},
	},
	system.ProducerKPMac: {
		required: []string{system.AttrProductName, system.AttrOSVersion},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^System_VersionInformation::ProductName:\s*(?P<product_name>\S.*?)\s*$`),
			regexp.MustCompile(`(?i)^System_VersionInformation::ProductVersion:\s*(?P<os_version>[0-9][0-9.]*)`),
		},
		compose: func(attrs map[string]string) string {
			return fmt.Sprintf("%s %s", attrs[system.AttrProductName], attrs[system.AttrOSVersion])
		},
	},
}

// osReleaseNameRe pulls the distribution NAME out of the collector's
// /etc/os-release capture.
var osReleaseNameRe = regexp.MustCompile(`(?i)/etc/os-release:NAME="?(?P<name>[^"]+)"?`)

// distroTable maps os-release NAME values onto package-manager families.
var distroTable = []struct {
	re     *regexp.Regexp
	family system.DistroFamily
}{
	{regexp.MustCompile(`(?i)debian|ubuntu|mint|kali|pop!?_os`), system.DistroDeb},
	{regexp.MustCompile(`(?i)red hat|rhel|centos|fedora|rocky|alma|oracle|amazon|suse`), system.DistroRPM},
	{regexp.MustCompile(`(?i)alpine`), system.DistroAPK},
}

func matchDistro(line string) system.DistroFamily {
	m := osReleaseNameRe.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	name := m[1]
	for _, entry := range distroTable {
		if entry.re.MatchString(name) {
			return entry.family
		}
	}
	return system.DistroOther
}

// captureNamed runs pat against line and stores every non-empty named group
// into attrs, first capture wins.
func captureNamed(pat *regexp.Regexp, line string, attrs map[string]string) {
	m := pat.FindStringSubmatch(line)
	if m == nil {
		return
	}
	for i, name := range pat.SubexpNames() {
		if i == 0 || name == "" || m[i] == "" {
			continue
		}
		if _, seen := attrs[name]; !seen {
			attrs[name] = m[i]
		}
	}
}
