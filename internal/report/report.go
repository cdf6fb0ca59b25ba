// Package report defines the run output contract consumed by exporters and
// renders the console summary.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/search"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/searchconfig"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/system"
)

// SearchOutput pairs one executed search with its ordered results. Err is
// set when a work unit for this search failed; the results then cover only
// the systems that completed.
type SearchOutput struct {
	Config  *searchconfig.SearchConfig
	Results []search.Result
	Err     error
}

// Exporter consumes a finished run. The spreadsheet writer lives outside
// this module and implements this interface.
type Exporter interface {
	Export(systems []*system.System, outputs []SearchOutput) error
}

// Summary aggregates a run for console display.
type Summary struct {
	FilesDiscovered   int
	SystemsClassified int
	FilesSkipped      int
	SearchesExecuted  int
	TotalMatches      int
	Partial           bool
}

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	partialColor = color.New(color.FgYellow, color.Bold)
	failColor    = color.New(color.FgRed)
)

// WriteSummary prints the end-of-run summary: classification counts,
// per-search match counts and an explicit partial-results banner for
// interrupted runs.
func WriteSummary(w io.Writer, sum Summary, outputs []SearchOutput) {
	fmt.Fprintln(w)
	headerColor.Fprintln(w, "Scan summary")
	fmt.Fprintf(w, "  Files discovered:   %d\n", sum.FilesDiscovered)
	fmt.Fprintf(w, "  Systems classified: %d\n", sum.SystemsClassified)
	if sum.FilesSkipped > 0 {
		fmt.Fprintf(w, "  Files skipped:      %d\n", sum.FilesSkipped)
	}
	fmt.Fprintf(w, "  Searches executed:  %d\n", sum.SearchesExecuted)
	fmt.Fprintf(w, "  Total matches:      %d\n", sum.TotalMatches)

	if len(outputs) > 0 {
		fmt.Fprintln(w)
		headerColor.Fprintln(w, "Matches per search")
		for _, out := range outputs {
			if out.Err != nil {
				failColor.Fprintf(w, "  %-40s failed: %v\n", out.Config.Name, out.Err)
				continue
			}
			fmt.Fprintf(w, "  %-40s %d\n", out.Config.Name, len(out.Results))
		}
	}

	if sum.Partial {
		fmt.Fprintln(w)
		partialColor.Fprintln(w, "Run was interrupted: results above are PARTIAL.")
	}
}
