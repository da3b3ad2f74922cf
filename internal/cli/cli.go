package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/koral-build/koral/internal/app"
)

// ExitError is an error carrying a specific process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

const usage = `koral - dependency resolution for Kotlin builds

Usage:
  koral <command> [options]

Commands:
  resolve     Resolve every variant's dependency graph.
  lock        Resolve and write koral.lock.
  check       Verify koral.lock against the current manifest.
  tree        Print each variant's dependency tree.
  why <coord> Show every path that pulls a coordinate in.
  conflicts   List mediated version conflicts per variant.

Options:
`

// Parse processes command-line arguments. It returns a populated app config,
// a boolean indicating a clean early exit (help), or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage(output)
		return nil, true, nil
	}

	command := app.Command(args[0])
	flagSet := flag.NewFlagSet("koral "+args[0], flag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.Usage = func() {
		printUsage(output)
		flagSet.PrintDefaults()
	}

	manifestFlag := flagSet.String("manifest", "koral.hcl", "Path to the build manifest.")
	variantFlag := flagSet.String("variant", "", "Restrict the command to one variant (e.g. 'paid-release').")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "warn", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	workersFlag := flagSet.Int("workers", 4, "Number of variants resolved concurrently.")
	depthFlag := flagSet.Int("depth", 0, "Maximum tree depth to print. 0 is unlimited.")
	updateFlag := flagSet.Bool("update", false, "Proceed past a stale lockfile and rewrite it.")

	if err := flagSet.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	coordinate := ""
	if command == app.CommandWhy {
		if flagSet.NArg() != 1 {
			return nil, false, &ExitError{Code: 2, Message: "why needs exactly one coordinate argument, e.g. koral why org.slf4j:slf4j-api"}
		}
		coordinate = flagSet.Arg(0)
	} else if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected argument %q", flagSet.Arg(0))}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		Command:      command,
		ManifestPath: *manifestFlag,
		Variant:      *variantFlag,
		Coordinate:   coordinate,
		LogFormat:    logFormat,
		LogLevel:     logLevel,
		Workers:      *workersFlag,
		MaxDepth:     *depthFlag,
		Update:       *updateFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	return config, false, nil
}

func printUsage(output io.Writer) {
	fmt.Fprint(output, usage)
	fmt.Fprintln(output, "  Run 'koral <command> -h' for command options.")
}
