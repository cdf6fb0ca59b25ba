package searchconfig

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/sysfilter"
)

func TestNewSearchConfig(t *testing.T) {
	t.Run("field_list forces only_matching", func(t *testing.T) {
		cfg, err := newSearchConfig("users", rawSearch{
			Regex:        `User: (?P<user>\w+)`,
			FieldList:    []string{"user"},
			OnlyMatching: false,
		})
		require.NoError(t, err)
		assert.True(t, cfg.OnlyMatching)
	})

	t.Run("excel sheet name defaults to the search name", func(t *testing.T) {
		cfg, err := newSearchConfig("open_ports", rawSearch{Regex: `\d+`})
		require.NoError(t, err)
		assert.Equal(t, "open_ports", cfg.ExcelSheetName)

		cfg, err = newSearchConfig("open_ports", rawSearch{Regex: `\d+`, ExcelSheetName: "Ports"})
		require.NoError(t, err)
		assert.Equal(t, "Ports", cfg.ExcelSheetName)
	})

	t.Run("zero max_results normalizes to unlimited", func(t *testing.T) {
		cfg, err := newSearchConfig("s", rawSearch{Regex: `x`})
		require.NoError(t, err)
		assert.Equal(t, -1, cfg.MaxResults)
	})

	t.Run("error cases", func(t *testing.T) {
		cases := []struct {
			name    string
			raw     rawSearch
			wantErr string
		}{
			{"empty regex", rawSearch{}, "regex must not be empty"},
			{"invalid regex", rawSearch{Regex: `(`}, "invalid regex"},
			{"multiline without field_list", rawSearch{Regex: `x`, Multiline: true}, "multiline requires field_list"},
			{"rs_delimiter without multiline", rawSearch{Regex: `x`, RSDelimiter: "--"}, "rs_delimiter requires multiline"},
			{"negative max_results", rawSearch{Regex: `x`, MaxResults: -5}, "max_results must be -1 or positive"},
			{"merge rule with one source", rawSearch{
				Regex:       `x`,
				MergeFields: []MergeRule{{SourceColumns: []string{"a"}, DestColumn: "c"}},
			}, "at least 2 source_columns"},
			{"merge rule without dest", rawSearch{
				Regex:       `x`,
				MergeFields: []MergeRule{{SourceColumns: []string{"a", "b"}}},
			}, "missing dest_column"},
			{"bad filter", rawSearch{
				Regex:     `x`,
				SysFilter: []sysfilter.Filter{{Attr: "os_family", Comp: "like", Value: "Linux"}},
			}, "unknown comparison operator"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := newSearchConfig("s", tc.raw)
				assert.ErrorContains(t, err, tc.wantErr)
			})
		}
	})
}

func TestMergeGlobal(t *testing.T) {
	global := rawSearch{
		MaxResults: 50,
		Unique:     true,
		SysFilter:  []sysfilter.Filter{{Attr: "os_family", Comp: "eq", Value: "Linux"}},
	}

	t.Run("global fills type-default fields", func(t *testing.T) {
		merged := mergeGlobal(rawSearch{Regex: `x`}, global)
		assert.Equal(t, 50, merged.MaxResults)
		assert.True(t, merged.Unique)
	})

	t.Run("explicitly set local values win", func(t *testing.T) {
		merged := mergeGlobal(rawSearch{Regex: `x`, MaxResults: 5}, global)
		assert.Equal(t, 5, merged.MaxResults)
	})

	t.Run("sys_filter lists concatenate global first", func(t *testing.T) {
		local := rawSearch{
			Regex:     `x`,
			SysFilter: []sysfilter.Filter{{Attr: "distro_family", Comp: "eq", Value: "deb"}},
		}
		merged := mergeGlobal(local, global)
		require.Len(t, merged.SysFilter, 2)
		assert.Equal(t, "os_family", merged.SysFilter[0].Attr)
		assert.Equal(t, "distro_family", merged.SysFilter[1].Attr)
	})
}
