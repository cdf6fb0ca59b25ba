package searchconfig

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/ctxlog"
)

// includePrefix marks reserved top-level keys whose value lists further
// config files to load.
const includePrefix = "include_"

// globalKey is the reserved top-level key holding per-file defaults.
const globalKey = "global"

// includeBlock is the YAML shape of an include_* value.
type includeBlock struct {
	Files []string `yaml:"files"`
}

// LoadSearchConfigs reads a YAML search-config file and returns the flat,
// ordered list of compiled searches: the file's own definitions first (in
// document order), then the definitions from each include, depth-first in
// the order the includes appear.
//
// Errors in the top-level file are fatal ConfigErrors. A missing or
// malformed include is recoverable: it is logged and skipped. Duplicate
// search names across includes are allowed. A file appearing twice in one
// load (including via an include cycle) is loaded only once; the repeat is
// logged and skipped.
func LoadSearchConfigs(ctx context.Context, path string) ([]*SearchConfig, error) {
	visited := make(map[string]bool)
	return loadFile(ctx, path, visited)
}

func loadFile(ctx context.Context, path string, visited map[string]bool) ([]*SearchConfig, error) {
	logger := ctxlog.FromContext(ctx)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	abs = filepath.Clean(abs)
	if visited[abs] {
		logger.Warn("Config file already loaded, skipping repeat include.", "path", abs)
		return nil, nil
	}
	visited[abs] = true

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, &ConfigError{Path: abs, Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigError{Path: abs, Err: fmt.Errorf("malformed YAML: %w", err)}
	}
	if len(doc.Content) == 0 {
		logger.Warn("Config file is empty.", "path", abs)
		return nil, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &ConfigError{Path: abs, Err: fmt.Errorf("top level must be a mapping, got %s", nodeKind(root))}
	}

	// First pass: pick up the global block so it merges into every local
	// definition regardless of where it appears in the file.
	var global rawSearch
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != globalKey {
			continue
		}
		if err := root.Content[i+1].Decode(&global); err != nil {
			return nil, &ConfigError{Path: abs, Err: fmt.Errorf("malformed global block: %w", err)}
		}
		break
	}

	var configs []*SearchConfig
	var includeFiles []string

	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		valNode := root.Content[i+1]

		switch {
		case key == globalKey:
			// handled above

		case strings.HasPrefix(key, includePrefix):
			var inc includeBlock
			if err := valNode.Decode(&inc); err != nil {
				return nil, &ConfigError{Path: abs, Err: fmt.Errorf("malformed %s block: %w", key, err)}
			}
			includeFiles = append(includeFiles, inc.Files...)

		default:
			var raw rawSearch
			if err := valNode.Decode(&raw); err != nil {
				return nil, &ConfigError{Path: abs, Name: key, Err: err}
			}
			cfg, err := newSearchConfig(key, mergeGlobal(raw, global))
			if err != nil {
				return nil, &ConfigError{Path: abs, Name: key, Err: err}
			}
			configs = append(configs, cfg)
		}
	}
	logger.Debug("Config file parsed.", "path", abs, "searches", len(configs), "includes", len(includeFiles))

	baseDir := filepath.Dir(abs)
	for _, inc := range includeFiles {
		target := inc
		if !filepath.IsAbs(target) {
			target = filepath.Join(baseDir, target)
		}
		sub, err := loadFile(ctx, target, visited)
		if err != nil {
			// Includes are recoverable: warn and move on with what loaded.
			logger.Warn("Skipping include that failed to load.", "path", target, "error", err)
			continue
		}
		configs = append(configs, sub...)
	}

	return configs, nil
}

func nodeKind(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		return "scalar"
	default:
		return "unknown node"
	}
}
