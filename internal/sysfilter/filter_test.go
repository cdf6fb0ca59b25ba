package sysfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/system"
)

func linuxSystem(name string) *system.System {
	return &system.System{
		ID:              system.NextID(),
		Name:            name,
		OSFamily:        system.OSLinux,
		DistroFamily:    system.DistroDeb,
		Producer:        system.ProducerKPNix,
		ProducerVersion: "0.6.21",
		Attrs:           map[string]string{system.AttrOSPrettyName: "Ubuntu 22.04.1 LTS"},
	}
}

func windowsSystem(name string) *system.System {
	return &system.System{
		ID:              system.NextID(),
		Name:            name,
		OSFamily:        system.OSWindows,
		Producer:        system.ProducerKPWin,
		ProducerVersion: "0.4.7",
		Attrs: map[string]string{
			system.AttrProductName:  "Windows Server 2019 Datacenter",
			system.AttrReleaseID:    "1809",
			system.AttrCurrentBuild: "17763",
			system.AttrUBR:          "3770",
		},
	}
}

func TestMatches(t *testing.T) {
	t.Run("empty filter list matches everything", func(t *testing.T) {
		assert.True(t, Matches(linuxSystem("l1"), nil))
		assert.True(t, Matches(windowsSystem("w1"), []Filter{}))
	})

	t.Run("eq on os_family normalizes the filter value", func(t *testing.T) {
		f := []Filter{{Attr: system.AttrOSFamily, Comp: "eq", Value: "linux"}}
		assert.True(t, Matches(linuxSystem("l1"), f))
		assert.False(t, Matches(windowsSystem("w1"), f))
	})

	t.Run("inapplicable attribute is skipped not failed", func(t *testing.T) {
		// A Windows-only attribute must not exclude a Linux system.
		f := []Filter{{Attr: system.AttrCurrentBuild, Comp: "ge", Value: "17763"}}
		assert.True(t, Matches(linuxSystem("l1"), f))
		assert.True(t, Matches(windowsSystem("w1"), f))
	})

	t.Run("applicable but absent attribute fails", func(t *testing.T) {
		sys := windowsSystem("w1")
		delete(sys.Attrs, system.AttrUBR)
		f := []Filter{{Attr: system.AttrUBR, Comp: "ge", Value: "1"}}
		assert.False(t, Matches(sys, f))
	})

	t.Run("filters combine with AND", func(t *testing.T) {
		f := []Filter{
			{Attr: system.AttrOSFamily, Comp: "eq", Value: "Windows"},
			{Attr: system.AttrReleaseID, Comp: "eq", Value: "1903"},
		}
		assert.False(t, Matches(windowsSystem("w1"), f))
	})

	t.Run("in operator tests membership", func(t *testing.T) {
		f := []Filter{{
			Attr:  system.AttrDistroFamily,
			Comp:  "in",
			Value: []any{"deb", "apk"},
		}}
		assert.True(t, Matches(linuxSystem("l1"), f))

		rpm := linuxSystem("l2")
		rpm.DistroFamily = system.DistroRPM
		assert.False(t, Matches(rpm, f))
	})

	t.Run("version comparison on producer_version", func(t *testing.T) {
		sys := linuxSystem("l1") // producer_version 0.6.21
		cases := []struct {
			comp  string
			value string
			want  bool
		}{
			{"eq", "0.6.21", true},
			{"eq", "0.6", false},
			{"gt", "0.6.20", true},
			{"gt", "0.6.21", false},
			{"lt", "0.6.22", true},
			{"ge", "0.6.21", true},
			{"le", "0.6.21", true},
			{"lt", "0.10.0", true}, // numeric, not lexical: 6 < 10
		}
		for _, tc := range cases {
			got := Matches(sys, []Filter{{Attr: system.AttrProducerVersion, Comp: tc.comp, Value: tc.value}})
			assert.Equal(t, tc.want, got, "%s %s", tc.comp, tc.value)
		}
	})

	t.Run("version padding treats missing components as zero", func(t *testing.T) {
		sys := linuxSystem("l1")
		sys.ProducerVersion = "1.2"
		f := []Filter{{Attr: system.AttrProducerVersion, Comp: "eq", Value: "1.2.0"}}
		assert.True(t, Matches(sys, f))
	})

	t.Run("unparseable version falls back to lexical comparison", func(t *testing.T) {
		sys := linuxSystem("l1")
		sys.ProducerVersion = "0.6.21-rc1"
		f := []Filter{{Attr: system.AttrProducerVersion, Comp: "gt", Value: "0.6.21-rc0"}}
		assert.True(t, Matches(sys, f))
	})

	t.Run("numeric comparison when both sides are numeric", func(t *testing.T) {
		sys := windowsSystem("w1") // release_id 1809
		f := []Filter{{Attr: system.AttrReleaseID, Comp: "lt", Value: 1903}}
		assert.True(t, Matches(sys, f))
	})
}

func TestFilterSystems(t *testing.T) {
	systems := []*system.System{
		linuxSystem("a"),
		windowsSystem("b"),
		linuxSystem("c"),
		windowsSystem("d"),
	}

	t.Run("empty filters return input unchanged", func(t *testing.T) {
		got := FilterSystems(systems, nil)
		assert.Equal(t, systems, got)
	})

	t.Run("output is an order-preserving subsequence", func(t *testing.T) {
		f := []Filter{{Attr: system.AttrOSFamily, Comp: "eq", Value: "Linux"}}
		got := FilterSystems(systems, f)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Name)
		assert.Equal(t, "c", got[1].Name)
	})

	t.Run("no match yields empty slice", func(t *testing.T) {
		f := []Filter{{Attr: system.AttrOSFamily, Comp: "eq", Value: "Darwin"}}
		assert.Empty(t, FilterSystems(systems, f))
	})
}

func TestFilterValidate(t *testing.T) {
	cases := []struct {
		name    string
		filter  Filter
		wantErr string
	}{
		{"valid scalar", Filter{Attr: "os_family", Comp: "eq", Value: "Linux"}, ""},
		{"valid in", Filter{Attr: "distro_family", Comp: "in", Value: []any{"deb"}}, ""},
		{"missing attr", Filter{Comp: "eq", Value: "x"}, "attr must not be empty"},
		{"unknown operator", Filter{Attr: "os_family", Comp: "like", Value: "x"}, "unknown comparison operator"},
		{"missing value", Filter{Attr: "os_family", Comp: "eq"}, "value must not be empty"},
		{"in needs a list", Filter{Attr: "os_family", Comp: "in", Value: "Linux"}, "requires a list value"},
		{"eq rejects a list", Filter{Attr: "os_family", Comp: "eq", Value: []any{"Linux"}}, "requires a scalar value"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.filter.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestCompareVersions(t *testing.T) {
	cases := []struct {
		a, b string
		want int
		ok   bool
	}{
		{"1.2.3", "1.2.4", -1, true},
		{"1.2.4", "1.2.3", 1, true},
		{"1.2.3", "1.2.3", 0, true},
		{"1.2", "1.2.0", 0, true},
		{"10.0.19041.1288", "10.0.19041.1200", 1, true},
		{"2", "10", -1, true},
		{"1.2.x", "1.2.3", 0, false},
		{"", "1.0.0", 0, false},
	}
	for _, tc := range cases {
		got, ok := compareVersions(tc.a, tc.b)
		require.Equal(t, tc.ok, ok, "%q vs %q", tc.a, tc.b)
		if ok {
			assert.Equal(t, tc.want, got, "%q vs %q", tc.a, tc.b)
		}
	}
}
