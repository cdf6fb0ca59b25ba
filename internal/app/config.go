package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	SearchConfigPath string // YAML search declarations
	AuditPath        string // audit file or directory of audit files
	FilePattern      string // glob applied to file names during discovery
	Recursive        bool

	LogFormat string
	LogLevel  string
	Workers   int // 0 means one worker per CPU
	BatchSize int // 0 disables batching
}

// NewConfig validates and normalizes a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SearchConfigPath == "" {
		return nil, errors.New("SearchConfigPath is a required configuration field and cannot be empty")
	}
	if cfg.AuditPath == "" {
		return nil, errors.New("AuditPath is a required configuration field and cannot be empty")
	}
	if cfg.FilePattern == "" {
		cfg.FilePattern = "*.txt"
	}
	if cfg.Workers < 0 {
		return nil, errors.New("Workers must not be negative")
	}
	if cfg.BatchSize < 0 {
		return nil, errors.New("BatchSize must not be negative")
	}
	return &cfg, nil
}
