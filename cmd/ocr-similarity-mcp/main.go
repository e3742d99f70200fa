package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironsheep/ocr-similarity-mcp/internal/config"
	"github.com/ironsheep/ocr-similarity-mcp/internal/logging"
	"github.com/ironsheep/ocr-similarity-mcp/internal/ocr"
	"github.com/ironsheep/ocr-similarity-mcp/internal/search"
	"github.com/ironsheep/ocr-similarity-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitNoMatches = 3
)

func main() {
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "--version", "-v", "version":
			fmt.Printf("ocr-similarity-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printUsage(os.Stdout)
			return
		case "search":
			os.Exit(runSearch(args[1:], os.Stdout, os.Stderr))
		case "watch":
			os.Exit(runWatch(args[1:], os.Stdout, os.Stderr))
		}
	}

	os.Exit(runServe(args, os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "ocr-similarity-mcp - find scanned documents with similar text")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ocr-similarity-mcp [-config file]                         Serve MCP over stdin/stdout")
	fmt.Fprintln(w, "  ocr-similarity-mcp search [flags] <reference> <folder>    Search once and print the report")
	fmt.Fprintln(w, "  ocr-similarity-mcp watch [flags] <reference> <folder>     Search again whenever the folder changes")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fmt.Fprintln(w, "  --version, -v    Print version information")
	fmt.Fprintln(w, "  --help, -h       Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Search and watch flags:")
	fmt.Fprintln(w, "  -config file     TOML configuration file")
	fmt.Fprintln(w, "  -threshold n     Minimum similarity in [0, 1]")
	fmt.Fprintln(w, "  -lang code       Tesseract language, e.g. eng or pol+eng")
	fmt.Fprintln(w, "  -format f        Report format for stdout: json or yaml (search)")
	fmt.Fprintln(w, "  -out file        Write the report to file; extension selects the format (search)")
	fmt.Fprintln(w, "  -debounce d      Wait this long for the folder to settle (watch)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  OCRSIM_CONFIG=file          Configuration file")
	fmt.Fprintln(w, "  OCRSIM_LOG_LEVEL=debug      Enable debug logging")
	fmt.Fprintln(w, "  OCRSIM_LANGUAGE=eng         Default OCR language")
	fmt.Fprintln(w, "  OCRSIM_THRESHOLD=0.5        Default similarity threshold")
	fmt.Fprintln(w, "  TESSDATA_PREFIX=dir         Tesseract training data directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Without a subcommand the server communicates via MCP protocol over stdin/stdout.")
	fmt.Fprintln(w, "Configure it in your MCP client (e.g., Claude Desktop).")
}

// setup loads the configuration and creates the logger shared by all modes.
func setup(configPath string) (config.Config, logging.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, nil, err
	}

	// Log to stderr; stdout is for MCP protocol and reports.
	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Debug("OCR similarity server starting",
		"version", Version,
		"build_time", BuildTime,
		"commit", GitCommit,
	)
	return cfg, logger, nil
}

func runServe(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("ocr-similarity-mcp", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	cfg, logger, err := setup(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	defer logger.Close()

	server.Version = Version
	srv := server.New(cfg, server.WithLogger(logger))
	if err := srv.Run(); err != nil {
		logger.Error("Server error", "error", err)
		return exitFailure
	}
	return exitOK
}

// searchFlags are shared by the search and watch subcommands.
type searchFlags struct {
	config    string
	threshold float64
	lang      string
}

func (f *searchFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.config, "config", "", "TOML configuration file")
	fs.Float64Var(&f.threshold, "threshold", search.DefaultThreshold, "minimum similarity in [0, 1]")
	fs.StringVar(&f.lang, "lang", ocr.DefaultLanguage, "Tesseract language")
}

// apply overrides cfg with the flags given on the command line.
func (f *searchFlags) apply(fs *flag.FlagSet, cfg *config.Config) error {
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "threshold":
			cfg.Threshold = f.threshold
		case "lang":
			cfg.Language = f.lang
		}
	})
	return cfg.Validate()
}

// positional returns the reference and folder arguments.
func positional(fs *flag.FlagSet) (string, string, error) {
	if fs.NArg() != 2 {
		return "", "", errors.New("expected <reference> and <folder>")
	}
	return fs.Arg(0), fs.Arg(1), nil
}

func newSearchEngine(cfg config.Config, logger logging.Logger) *search.Engine {
	extractor := ocr.NewExtractor(ocr.NewTesseractEngine(cfg.OCR()), logger)
	return search.NewEngine(extractor, search.WithLogger(logger))
}

func runSearch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("search", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf searchFlags
	sf.register(fs)
	formatName := fs.String("format", string(search.FormatJSON), "report format for stdout: json or yaml")
	out := fs.String("out", "", "write the report to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	ref, folder, err := positional(fs)
	if err != nil {
		fmt.Fprintf(stderr, "search: %v\n", err)
		return exitUsage
	}
	format, err := search.ParseFormat(*formatName)
	if err != nil {
		fmt.Fprintf(stderr, "search: %v\n", err)
		return exitUsage
	}

	cfg, logger, err := setup(sf.config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	defer logger.Close()
	if err := sf.apply(fs, &cfg); err != nil {
		fmt.Fprintf(stderr, "search: %v\n", err)
		return exitUsage
	}

	report, searchErr := newSearchEngine(cfg, logger).Search(ref, folder, cfg.Search())
	if kind := search.Kind(searchErr); kind == search.KindFolderRead || kind == search.KindInvalidConfig || kind == search.KindInternal {
		fmt.Fprintf(stderr, "search: %v\n", searchErr)
		return exitFailure
	}

	if *out != "" {
		err = report.Save(*out)
	} else {
		err = report.Write(stdout, format)
	}
	if err != nil {
		fmt.Fprintf(stderr, "search: %v\n", err)
		return exitFailure
	}

	if searchErr != nil {
		fmt.Fprintf(stderr, "search: %v\n", searchErr)
		return exitNoMatches
	}
	if report.ResultsCount == 0 {
		return exitNoMatches
	}
	return exitOK
}

func runWatch(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf searchFlags
	sf.register(fs)
	debounce := fs.Duration("debounce", 0, "wait this long for the folder to settle (default from config)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	ref, folder, err := positional(fs)
	if err != nil {
		fmt.Fprintf(stderr, "watch: %v\n", err)
		return exitUsage
	}

	cfg, logger, err := setup(sf.config)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFailure
	}
	defer logger.Close()
	if err := sf.apply(fs, &cfg); err != nil {
		fmt.Fprintf(stderr, "watch: %v\n", err)
		return exitUsage
	}

	wait := cfg.WatchDebounce.Duration
	if *debounce > 0 {
		wait = *debounce
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := search.NewWatcher(newSearchEngine(cfg, logger), ref, folder, cfg.Search(), wait, func(report *search.Report, err error) {
		if err != nil {
			fmt.Fprintf(stderr, "%s watch: %v\n", time.Now().Format(time.TimeOnly), err)
		}
		if werr := report.Write(stdout, search.FormatJSON); werr != nil {
			logger.Error("Failed to write report", "error", werr)
		}
	})

	if err := watcher.Run(ctx); err != nil {
		fmt.Fprintf(stderr, "watch: %v\n", err)
		return exitFailure
	}
	return exitOK
}
