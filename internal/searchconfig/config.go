// Package searchconfig loads the YAML files that declare named regex
// searches, resolves include directives, and merges per-file global defaults
// into each declaration.
package searchconfig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/sysfilter"
)

// ConfigError is the fatal error class for this package: malformed YAML, an
// invalid regex, or a malformed filter value. It aborts the run before any
// scanning starts.
type ConfigError struct {
	Path string
	Name string // search name, when the failure is scoped to one definition
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("config %s: search %q: %v", e.Path, e.Name, e.Err)
	}
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// MergeRule collapses two or more extracted columns into one: the first
// non-empty source column wins and the source columns are removed from the
// result.
type MergeRule struct {
	SourceColumns []string `yaml:"source_columns"`
	DestColumn    string   `yaml:"dest_column"`
}

// SearchConfig is one fully validated, compiled search declaration.
type SearchConfig struct {
	Name           string
	Pattern        string
	Regex          *regexp.Regexp
	Comment        string
	ExcelSheetName string
	MaxResults     int // -1 means unlimited
	FieldList      []string
	OnlyMatching   bool
	Unique         bool
	FullScan       bool
	RSDelimiter    string
	Multiline      bool
	MergeFields    []MergeRule
	SysFilter      []sysfilter.Filter
}

// rawSearch is the YAML shape of a search block before validation. The same
// shape is used for the per-file "global" block.
type rawSearch struct {
	Regex          string             `yaml:"regex"`
	Comment        string             `yaml:"comment"`
	ExcelSheetName string             `yaml:"excel_sheet_name"`
	MaxResults     int                `yaml:"max_results"`
	FieldList      []string           `yaml:"field_list"`
	OnlyMatching   bool               `yaml:"only_matching"`
	Unique         bool               `yaml:"unique"`
	FullScan       bool               `yaml:"full_scan"`
	RSDelimiter    string             `yaml:"rs_delimiter"`
	Multiline      bool               `yaml:"multiline"`
	MergeFields    []MergeRule        `yaml:"merge_fields"`
	SysFilter      []sysfilter.Filter `yaml:"sys_filter"`
}

// mergeGlobal fills fields the local block left at their type default with
// the file's global defaults. Filter lists concatenate, global first, so a
// global OS restriction still applies when a search adds its own.
func mergeGlobal(local, global rawSearch) rawSearch {
	out := local
	if out.Regex == "" {
		out.Regex = global.Regex
	}
	if out.Comment == "" {
		out.Comment = global.Comment
	}
	if out.ExcelSheetName == "" {
		out.ExcelSheetName = global.ExcelSheetName
	}
	if out.MaxResults == 0 {
		out.MaxResults = global.MaxResults
	}
	if len(out.FieldList) == 0 {
		out.FieldList = global.FieldList
	}
	if !out.OnlyMatching {
		out.OnlyMatching = global.OnlyMatching
	}
	if !out.Unique {
		out.Unique = global.Unique
	}
	if !out.FullScan {
		out.FullScan = global.FullScan
	}
	if out.RSDelimiter == "" {
		out.RSDelimiter = global.RSDelimiter
	}
	if !out.Multiline {
		out.Multiline = global.Multiline
	}
	if len(out.MergeFields) == 0 {
		out.MergeFields = global.MergeFields
	}
	if len(global.SysFilter) > 0 {
		merged := make([]sysfilter.Filter, 0, len(global.SysFilter)+len(out.SysFilter))
		merged = append(merged, global.SysFilter...)
		merged = append(merged, out.SysFilter...)
		out.SysFilter = merged
	}
	return out
}

// newSearchConfig validates a raw block and compiles it. Invariants enforced
// here: a field_list forces only_matching; multiline requires a field_list;
// rs_delimiter requires multiline; max_results is -1 or positive (a zero
// value normalizes to -1).
func newSearchConfig(name string, raw rawSearch) (*SearchConfig, error) {
	if strings.TrimSpace(raw.Regex) == "" {
		return nil, fmt.Errorf("regex must not be empty")
	}
	re, err := regexp.Compile(raw.Regex)
	if err != nil {
		return nil, fmt.Errorf("invalid regex: %w", err)
	}

	if raw.Multiline && len(raw.FieldList) == 0 {
		return nil, fmt.Errorf("multiline requires field_list")
	}
	if raw.RSDelimiter != "" && !raw.Multiline {
		return nil, fmt.Errorf("rs_delimiter requires multiline")
	}

	maxResults := raw.MaxResults
	switch {
	case maxResults == 0:
		maxResults = -1
	case maxResults < -1:
		return nil, fmt.Errorf("max_results must be -1 or positive, got %d", maxResults)
	}

	for _, rule := range raw.MergeFields {
		if len(rule.SourceColumns) < 2 {
			return nil, fmt.Errorf("merge_fields rule for %q needs at least 2 source_columns", rule.DestColumn)
		}
		if strings.TrimSpace(rule.DestColumn) == "" {
			return nil, fmt.Errorf("merge_fields rule is missing dest_column")
		}
	}

	for _, f := range raw.SysFilter {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}

	onlyMatching := raw.OnlyMatching
	if len(raw.FieldList) > 0 {
		onlyMatching = true
	}

	sheet := raw.ExcelSheetName
	if sheet == "" {
		sheet = name
	}

	return &SearchConfig{
		Name:           name,
		Pattern:        raw.Regex,
		Regex:          re,
		Comment:        raw.Comment,
		ExcelSheetName: sheet,
		MaxResults:     maxResults,
		FieldList:      raw.FieldList,
		OnlyMatching:   onlyMatching,
		Unique:         raw.Unique,
		FullScan:       raw.FullScan,
		RSDelimiter:    raw.RSDelimiter,
		Multiline:      raw.Multiline,
		MergeFields:    raw.MergeFields,
		SysFilter:      raw.SysFilter,
	}, nil
}
