// Package app is the composition root: it wires the classifier, config
// loader, search engine and parallel executor together and owns the run
// lifecycle.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/classify"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/ctxlog"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/encdetect"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/hashutil"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/report"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/search"
	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/searchconfig"
)

// App encapsulates the application's dependencies and lifecycle. outW
// receives the summary; errW receives progress and interrupt messages.
type App struct {
	outW       io.Writer
	errW       io.Writer
	logger     *slog.Logger
	configs    []*searchconfig.SearchConfig
	classifier *classify.Classifier
	engine     *search.Engine
	exporter   report.Exporter // optional
}

// NewApp constructs the application. Search configs load here so that every
// fatal config problem (malformed YAML, bad regex, bad filter) surfaces
// before any scanning starts; such problems panic and are recovered by the
// caller for a clean exit message.
func NewApp(outW, errW io.Writer, cfg *Config, exporter report.Exporter) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	configs, err := searchconfig.LoadSearchConfigs(ctx, cfg.SearchConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load search configuration: %w", err))
	}
	logger.Debug("Search configuration loaded.", "searches", len(configs))

	return &App{
		outW:       outW,
		errW:       errW,
		logger:     logger,
		configs:    configs,
		classifier: classify.New(encdetect.Detect, hashutil.SHA256File, nil),
		engine:     search.NewEngine(nil),
		exporter:   exporter,
	}
}

// Configs returns the loaded search configs. This is primarily for testing.
func (a *App) Configs() []*searchconfig.SearchConfig {
	return a.configs
}

// newLogger creates an isolated slog.Logger; it never touches the global
// default.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, opts)
	} else {
		handler = slog.NewTextHandler(outW, opts)
	}
	return slog.New(handler)
}
