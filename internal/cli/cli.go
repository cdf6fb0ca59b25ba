package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/kirkpatrickprice/analysis-toolkit-sub001/internal/app"
)

// Version is the build version, overridable at link time.
var Version = "dev"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("kpsearch", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
kpsearch - search classified security-audit dumps with YAML-declared regexes.

Usage:
  kpsearch [options] [AUDIT_PATH]

Arguments:
  AUDIT_PATH
    Path to a single audit file or a directory of audit files.

Options:
`)
		flagSet.PrintDefaults()
	}

	confFlag := flagSet.String("conf", "", "Path to the YAML search configuration file.")
	cFlag := flagSet.String("c", "", "Path to the YAML search configuration file (shorthand).")
	pathFlag := flagSet.String("path", "", "Path to the audit file or directory.")
	patternFlag := flagSet.String("pattern", "*.txt", "Glob applied to file names during discovery.")
	recurseFlag := flagSet.Bool("recurse", false, "Descend into subdirectories during discovery.")
	workersFlag := flagSet.Int("workers", 0, "Number of concurrent workers. 0 uses one per CPU.")
	batchFlag := flagSet.Int("batch-size", 0, "Bound on in-flight work units per batch. 0 disables batching.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	versionFlag := flagSet.Bool("version", false, "Print the version and exit.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	if *versionFlag {
		fmt.Fprintf(output, "kpsearch %s\n", Version)
		return nil, true, nil
	}

	conf := *confFlag
	if conf == "" {
		conf = *cFlag
	}

	auditPath := *pathFlag
	if auditPath == "" && flagSet.NArg() > 0 {
		auditPath = flagSet.Arg(0)
	}

	if conf == "" || auditPath == "" {
		flagSet.Usage()
		return nil, true, nil
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		SearchConfigPath: conf,
		AuditPath:        auditPath,
		FilePattern:      *patternFlag,
		Recursive:        *recurseFlag,
		LogFormat:        logFormat,
		LogLevel:         logLevel,
		Workers:          *workersFlag,
		BatchSize:        *batchFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return config, false, nil
}
