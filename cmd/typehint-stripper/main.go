package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spicery/typehint-stripper/pkg/stripper"
	"github.com/spicery/typehint-stripper/pkg/verify"
)

const (
	version = "0.1.0"
	usage   = `typehint-stripper - Removes type hints from Python source files

Usage:
  typehint-stripper [options] [file ...]

Options:
  -h, --help                Show this help message
  -v, --version             Show version information
  --config <file>           YAML config file (optional)
  --make-config             Generate default config YAML to stdout
  --ignore <names>          Comma separated functions whose hints are kept (repeatable)
  --output <file>           Write the rewritten single input here (defaults to tmp_<name>)
  --temp-dir <dir>          Directory for tmp_<name> files (defaults to the working directory)
  --max-term-size <n>       Working buffer size, rounded up to a power of two
  --verify                  Check that rewritten files still parse as Python
  --exit0                   Exit with code 0 even on errors
  -verbose                  Report progress and errors on stderr
  -debug                    Trace every term (implies -verbose)
  -overwrite                Replace source files with their rewritten copies
  -continue_on_error        Keep processing after the first error (not recommended)
  -all_disabled             Switch every flag off, verbose included

Examples:
  typehint-stripper main.py                          # Write tmp_main.py
  typehint-stripper -overwrite src/*.py              # Rewrite files in place
  typehint-stripper --ignore dispatch,handler a.py   # Keep hints of dispatch and handler
  typehint-stripper --config strip.yaml              # Files and ignore list from config
  cat main.py | typehint-stripper -                  # Read from stdin, write to stdout
`
)

type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(value string) error {
	for _, name := range strings.Split(value, ",") {
		if name = strings.TrimSpace(name); name != "" {
			*l = append(*l, name)
		}
	}
	return nil
}

func main() {
	var showHelp, showVersion, exit0, makeConfig, verifyOutput bool
	var verbose, debug, overwrite, continueOnError, allDisabled bool
	var configFile, outputFile, tempDir string
	var maxTermSize int
	var ignored stringList

	flag.BoolVar(&showHelp, "h", false, "Show help")
	flag.BoolVar(&showHelp, "help", false, "Show help")
	flag.BoolVar(&showVersion, "v", false, "Show version")
	flag.BoolVar(&showVersion, "version", false, "Show version")
	flag.BoolVar(&exit0, "exit0", false, "Exit with code 0 even on errors")
	flag.BoolVar(&makeConfig, "make-config", false, "Generate default config YAML")
	flag.BoolVar(&verifyOutput, "verify", false, "Verify rewritten files")
	flag.BoolVar(&verbose, "verbose", false, "Verbose diagnostics")
	flag.BoolVar(&debug, "debug", false, "Per-term trace")
	flag.BoolVar(&overwrite, "overwrite", false, "Overwrite source files")
	flag.BoolVar(&continueOnError, "continue_on_error", false, "Continue after errors")
	flag.BoolVar(&allDisabled, "all_disabled", false, "Disable all flags")
	flag.StringVar(&configFile, "config", "", "YAML config file (optional)")
	flag.StringVar(&outputFile, "output", "", "Output file for a single input")
	flag.StringVar(&tempDir, "temp-dir", "", "Directory for temporary files")
	flag.IntVar(&maxTermSize, "max-term-size", 0, "Working buffer size")
	flag.Var(&ignored, "ignore", "Functions whose hints are kept")

	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("typehint-stripper version %s\n", version)
		os.Exit(0)
	}

	if makeConfig {
		data, err := stripper.DefaultConfig().Marshal()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating default config: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
		os.Exit(0)
	}

	// Load config if specified
	config := stripper.DefaultConfig()
	if configFile != "" {
		var err error
		config, err = stripper.LoadConfigFile(configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file '%s': %v\n", configFile, err)
			os.Exit(1)
		}
	}

	// Command line flags add to the config
	config.Ignore = append(config.Ignore, ignored...)
	config.Files = append(config.Files, flag.Args()...)
	config.Verbose = config.Verbose || verbose
	config.Debug = config.Debug || debug
	config.Overwrite = config.Overwrite || overwrite
	config.ContinueOnError = config.ContinueOnError || continueOnError
	config.Verify = config.Verify || verifyOutput
	config.AllDisabled = config.AllDisabled || allDisabled
	if tempDir != "" {
		config.TempDir = tempDir
	}
	if maxTermSize > 0 {
		config.MaxTermSize = maxTermSize
	}

	if len(config.Files) == 0 {
		fmt.Fprintf(os.Stderr, "Error: No input files. Pass files as arguments, '-' for stdin, or list them in the config.\n\n")
		flag.Usage()
		os.Exit(1)
	}

	opts := config.Options()
	opts.Logger = newLogger(opts.Flags)
	if config.Verify {
		opts.Check = func(path string) error {
			return verify.File(context.Background(), path)
		}
	}
	s := stripper.New(opts)

	var errs stripper.ErrorMask
	var functions []string
	if outputFile != "" || (len(config.Files) == 1 && config.Files[0] == "-") {
		if len(config.Files) != 1 {
			fmt.Fprint(os.Stderr, "Error: --output needs exactly one input file\n\n")
			flag.Usage()
			os.Exit(1)
		}
		res, err := stripSingle(s, config.Files[0], outputFile, config.Verify)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		errs, functions = res.Errors, res.Functions
	} else {
		sum := s.Batch(config.Files)
		errs, functions = sum.Errors, sum.Functions
		if opts.Flags.Has(stripper.FlagVerbose) {
			fmt.Fprintf(os.Stderr, "%d file(s) processed, %d failed\n", sum.Processed, sum.Failed)
		}
	}

	for _, u := range stripper.UnmatchedIgnored(opts.Ignored, functions) {
		if u.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "Warning: ignored function '%s' is never defined (did you mean '%s'?)\n", u.Name, u.Suggestion)
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignored function '%s' is never defined\n", u.Name)
		}
	}

	// Handle errors after processing
	if !errs.OK() {
		if exit0 {
			os.Exit(0)
		}
		fmt.Fprint(os.Stderr, errs.Report())
		os.Exit(1)
	}
}

// stripSingle rewrites one input, "-" meaning stdin, into outputFile or
// stdout.
func stripSingle(s *stripper.Stripper, inputFile, outputFile string, verifyOutput bool) (stripper.Result, error) {
	var input io.Reader = os.Stdin
	if inputFile != "-" {
		file, err := os.Open(inputFile)
		if err != nil {
			return stripper.Result{}, fmt.Errorf("failed to open input file '%s': %w", inputFile, err)
		}
		defer file.Close()
		input = file
	}

	var sb strings.Builder
	res := s.Strip(input, &sb)
	if !res.Errors.OK() {
		return res, nil
	}

	if verifyOutput {
		syntaxErrors, err := verify.Python(context.Background(), []byte(sb.String()))
		if err != nil {
			return res, err
		}
		for _, se := range syntaxErrors {
			fmt.Fprintf(os.Stderr, "Verification: %s\n", se)
		}
		if len(syntaxErrors) > 0 {
			res.Errors |= stripper.ErrOutputSyntax
			return res, nil
		}
	}

	// Prepare output destination
	var output io.Writer = os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return res, fmt.Errorf("failed to create output file '%s': %w", outputFile, err)
		}
		defer file.Close()
		output = file
	}
	if _, err := io.WriteString(output, sb.String()); err != nil {
		return res, fmt.Errorf("failed to write output: %w", err)
	}
	return res, nil
}

// newLogger returns a text logger on stderr whose level follows the
// verbose and debug flags.
func newLogger(flags stripper.Flags) *slog.Logger {
	if !flags.Has(stripper.FlagVerbose) {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	level := slog.LevelInfo
	if flags.Has(stripper.FlagDebug) {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
