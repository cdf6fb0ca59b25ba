package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/briandowns/spinner"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/ctxlog"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/executor"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/fsutil"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/interrupt"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/report"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/search"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/searchconfig"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/sysfilter"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/system"
)

// Run executes the full pipeline: discover audit files, classify them,
// pre-filter the applicable searches, fan the (search, system) matrix out
// across the worker pool and report the regrouped results.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	watcher := interrupt.NewWatcher(a.errW, cancel)
	watcher.Start()
	defer watcher.Stop()

	files, err := fsutil.DiscoverFiles(cfg.AuditPath, cfg.FilePattern, cfg.Recursive)
	if err != nil {
		return fmt.Errorf("failed to discover audit files: %w", err)
	}
	a.logger.Info("Audit files discovered.", "count", len(files), "path", cfg.AuditPath, "pattern", cfg.FilePattern)
	if len(files) == 0 {
		a.logger.Warn("No audit files found, nothing to do.")
		return nil
	}

	systems, skipped := a.classifyAll(runCtx, files, cfg.Workers, watcher)
	a.logger.Info("Classification finished.", "systems", len(systems), "skipped", skipped)
	if len(systems) == 0 {
		a.logger.Warn("No classifiable systems found, nothing to scan.")
		report.WriteSummary(a.outW, report.Summary{
			FilesDiscovered: len(files),
			FilesSkipped:    skipped,
			Partial:         watcher.Interrupted(),
		}, nil)
		return nil
	}

	applicable := search.FilterApplicableSearches(a.configs, systems)
	a.logger.Info("Applicable searches selected.", "applicable", len(applicable), "configured", len(a.configs))

	outputs, totalMatches := a.executeSearches(runCtx, applicable, systems, cfg, watcher)

	if a.exporter != nil && !watcher.Interrupted() {
		if err := a.exporter.Export(systems, outputs); err != nil {
			return fmt.Errorf("failed to export results: %w", err)
		}
	}

	report.WriteSummary(a.outW, report.Summary{
		FilesDiscovered:   len(files),
		SystemsClassified: len(systems),
		FilesSkipped:      skipped,
		SearchesExecuted:  len(applicable),
		TotalMatches:      totalMatches,
		Partial:           watcher.Interrupted(),
	}, outputs)

	a.logger.Debug("App.Run method finished.")
	return nil
}

// classifyAll fans classification out across the worker pool. Files that
// fail to classify are logged and skipped; the run continues.
func (a *App) classifyAll(ctx context.Context, files []string, workers int, watcher *interrupt.Watcher) ([]*system.System, int) {
	tasks := make([]executor.Task[*system.System], len(files))
	for i, path := range files {
		path := path
		tasks[i] = func(ctx context.Context) (*system.System, error) {
			return a.classifier.ClassifyFile(ctx, path)
		}
	}

	results := executor.Execute(ctx, tasks, workers, watcher)

	systems := make([]*system.System, 0, len(results))
	skipped := 0
	for _, r := range results {
		if r.Err != nil {
			a.logger.Warn("Skipping unclassifiable file.", "file", files[r.Index], "error", r.Err)
			skipped++
			continue
		}
		systems = append(systems, r.Value)
	}
	return systems, skipped
}

// executeSearches builds one work unit per (search, candidate system) pair,
// runs them through the batched pool and regroups the outputs by search in
// config order. Unit failures are tagged onto the owning search, never
// propagated to siblings.
func (a *App) executeSearches(ctx context.Context, configs []*searchconfig.SearchConfig, systems []*system.System, cfg *Config, watcher *interrupt.Watcher) ([]report.SearchOutput, int) {
	var (
		tasks     []executor.Task[[]search.Result]
		taskCfg   []int // task index -> config index, for regrouping
		completed atomic.Int64
	)
	for ci, sc := range configs {
		sc := sc
		for _, sys := range sysfilter.FilterSystems(systems, sc.SysFilter) {
			sys := sys
			tasks = append(tasks, func(ctx context.Context) ([]search.Result, error) {
				defer completed.Add(1)
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return a.engine.Run(ctx, sc, []*system.System{sys}), nil
			})
			taskCfg = append(taskCfg, ci)
		}
	}

	stopProgress := a.startProgress(&completed, int64(len(tasks)))
	results := executor.ExecuteBatches(ctx, tasks, cfg.Workers, cfg.BatchSize, watcher)
	stopProgress()

	outputs := make([]report.SearchOutput, len(configs))
	for i, sc := range configs {
		outputs[i].Config = sc
	}
	totalMatches := 0
	for _, r := range results {
		out := &outputs[taskCfg[r.Index]]
		if r.Err != nil {
			a.logger.Warn("Work unit failed.", "search", out.Config.Name, "error", r.Err)
			if out.Err == nil {
				out.Err = r.Err
			}
			continue
		}
		out.Results = append(out.Results, r.Value...)
		totalMatches += len(r.Value)
	}
	return outputs, totalMatches
}

// startProgress runs a spinner on errW showing completed/total work units.
// The returned stop function is safe to call once.
func (a *App) startProgress(completed *atomic.Int64, total int64) func() {
	if total == 0 {
		return func() {}
	}
	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(a.errW))
	spin.Suffix = fmt.Sprintf(" scanning 0/%d", total)
	spin.Start()

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				spin.Suffix = fmt.Sprintf(" scanning %d/%d", completed.Load(), total)
			}
		}
	}()
	return func() {
		close(done)
		spin.Stop()
	}
}
