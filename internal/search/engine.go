// Package search runs compiled search configs against classified systems:
// regex scanning in line or record mode, named-group field extraction,
// column merging, dedup and sanitization.
package search

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/ctxlog"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/encdetect"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/searchconfig"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/sysfilter"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/system"
)

// Result is one match from one system.
type Result struct {
	SystemName  string
	LineNumber  int // 1-based physical line, or record index in record mode
	MatchedText string
	Fields      *Fields
}

// OpenFunc opens path decoded from the named encoding to UTF-8.
type OpenFunc func(path, enc string) (io.ReadCloser, error)

// Engine scans classified systems. The decoding opener is injected so tests
// and callers with exotic sources can substitute their own.
type Engine struct {
	open OpenFunc
}

// NewEngine returns an Engine. A nil opener uses the module's own decoder.
func NewEngine(open OpenFunc) *Engine {
	if open == nil {
		open = encdetect.Open
	}
	return &Engine{open: open}
}

// Run executes one search config against the system list and returns the
// ordered results: candidate systems keep their input order, matches within
// a system keep file order. Per-system I/O failures are logged and
// contribute zero results; they never abort the batch.
func (e *Engine) Run(ctx context.Context, cfg *searchconfig.SearchConfig, systems []*system.System) []Result {
	logger := ctxlog.FromContext(ctx)

	candidates := sysfilter.FilterSystems(systems, cfg.SysFilter)

	var results []Result
	for _, sys := range candidates {
		rs, err := e.scanSystem(cfg, sys)
		if err != nil {
			logger.Warn("Scan failed for system, continuing with zero results.",
				"search", cfg.Name, "system", sys.Name, "error", err)
			continue
		}
		results = append(results, rs...)
	}

	if cfg.Unique {
		results = dedupe(results)
	}
	logger.Debug("Search complete.", "search", cfg.Name, "systems", len(candidates), "results", len(results))
	return results
}

// FilterApplicableSearches keeps only the configs whose sys_filter matches
// at least one system. It performs no scanning; the caller uses it to size
// progress reporting before work is dispatched.
func FilterApplicableSearches(configs []*searchconfig.SearchConfig, systems []*system.System) []*searchconfig.SearchConfig {
	kept := make([]*searchconfig.SearchConfig, 0, len(configs))
	for _, cfg := range configs {
		if len(sysfilter.FilterSystems(systems, cfg.SysFilter)) > 0 {
			kept = append(kept, cfg)
		}
	}
	return kept
}

func (e *Engine) scanSystem(cfg *searchconfig.SearchConfig, sys *system.System) ([]Result, error) {
	r, err := e.open(sys.Path, sys.Encoding)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	if cfg.Multiline {
		return scanRecords(cfg, sys, r)
	}
	return scanLines(cfg, sys, r)
}

// scanLines iterates physical lines, skipping collector noise, and records
// the first pattern match per line. Without full_scan the loop ends when the
// first contiguous block of matching lines ends, since collector output
// groups related lines into one section.
func scanLines(cfg *searchconfig.SearchConfig, sys *system.System, r io.Reader) ([]Result, error) {
	var results []Result
	matchedAny := false
	lineNo := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isNoiseLine(line) {
			continue
		}

		idx := cfg.Regex.FindStringSubmatchIndex(line)
		if idx == nil {
			if matchedAny && !cfg.FullScan {
				break
			}
			continue
		}
		matchedAny = true

		results = append(results, buildResult(cfg, sys, lineNo, line, idx))
		if cfg.MaxResults > 0 && len(results) >= cfg.MaxResults {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// scanRecords reads the whole file and runs the pattern once per record. The
// file splits into records on rs_delimiter when set; otherwise the entire
// file is a single record. A record's 1-based index in the split becomes the
// result's line number.
func scanRecords(cfg *searchconfig.SearchConfig, sys *system.System, r io.Reader) ([]Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	records := []string{string(data)}
	if cfg.RSDelimiter != "" {
		records = strings.Split(string(data), cfg.RSDelimiter)
	}

	var results []Result
	for i, rec := range records {
		if strings.TrimSpace(rec) == "" {
			continue
		}
		idx := cfg.Regex.FindStringSubmatchIndex(rec)
		if idx == nil {
			continue
		}
		results = append(results, buildResult(cfg, sys, i+1, rec, idx))
		if cfg.MaxResults > 0 && len(results) >= cfg.MaxResults {
			break
		}
	}
	return results, nil
}

// buildResult assembles a sanitized Result from one regex match, given the
// submatch index pairs for text. A named group with a negative start index
// did not participate in the match and becomes a null field.
func buildResult(cfg *searchconfig.SearchConfig, sys *system.System, lineNo int, text string, idx []int) Result {
	matched := text
	if cfg.OnlyMatching {
		matched = text[idx[0]:idx[1]]
	}

	fields := NewFields()
	wanted := fieldSet(cfg.FieldList)
	for i, name := range cfg.Regex.SubexpNames() {
		if i == 0 || name == "" {
			continue
		}
		if wanted != nil && !wanted[name] {
			continue
		}
		if 2*i+1 >= len(idx) {
			continue
		}
		start, end := idx[2*i], idx[2*i+1]
		if start < 0 {
			fields.Set(name, nil)
			continue
		}
		fields.Set(name, coerceValue(text[start:end]))
	}
	applyMerges(fields, cfg.MergeFields)
	sanitizeFields(fields)

	return Result{
		SystemName:  sys.Name,
		LineNumber:  lineNo,
		MatchedText: sanitize(matched),
		Fields:      fields,
	}
}

func fieldSet(list []string) map[string]bool {
	if len(list) == 0 {
		return nil
	}
	set := make(map[string]bool, len(list))
	for _, f := range list {
		set[f] = true
	}
	return set
}

// dedupe keeps the first occurrence of each (system, trimmed matched text)
// pair, preserving order.
func dedupe(results []Result) []Result {
	type key struct {
		system string
		text   string
	}
	seen := make(map[key]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		k := key{r.SystemName, strings.TrimSpace(r.MatchedText)}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}
