package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/vk/galaxevo/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Options is the full result of argument parsing.
type Options struct {
	Settings app.Settings

	// TreePath points at the merger-tree catalog to process. Empty runs
	// the built-in demo tree.
	TreePath string
}

// Parse processes command-line arguments. It returns the parsed options, a
// boolean indicating the program should exit cleanly (help requested), or
// an ExitError for malformed input.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	flagSet := flag.NewFlagSet("galaxevo", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
galaxevo - a semi-analytic galaxy evolution runtime.

Usage:
  galaxevo [options] [TREE_PATH]

Arguments:
  TREE_PATH
    Path to a merger-tree catalog. Omitted, a built-in demo tree runs.

Options:
`)
		flagSet.PrintDefaults()
	}

	runFlag := flagSet.String("run", "", "Path to an .hcl run-description file or directory.")
	treeFlag := flagSet.String("trees", "", "Path to the merger-tree catalog.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	treePath := *treeFlag
	if treePath == "" && flagSet.NArg() > 0 {
		treePath = flagSet.Arg(0)
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

	return &Options{
		Settings: app.Settings{
			RunPath:   *runFlag,
			LogFormat: logFormat,
			LogLevel:  logLevel,
		},
		TreePath: treePath,
	}, false, nil
}
