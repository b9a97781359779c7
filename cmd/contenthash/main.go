package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/TheEntropyCollective/contenthash/pkg/common/logging"
	"github.com/TheEntropyCollective/contenthash/pkg/core/digest"
	"github.com/TheEntropyCollective/contenthash/pkg/infrastructure/config"
	"github.com/TheEntropyCollective/contenthash/pkg/util"
)

const version = "1.0.0"

// Exit codes: exitUsage covers bad invocations and verification
// mismatches, exitFailure covers I/O and hashing failures.
const (
	exitOK      = 0
	exitUsage   = 1
	exitFailure = 2
)

// options carries the resolved configuration shared by the commands.
type options struct {
	cfg        *config.Config
	decompress bool
	logger     *logging.Logger
}

func main() {
	var (
		configFile  = flag.String("config", "", "Configuration file path")
		algorithm   = flag.String("algorithm", "", "Digest algorithm (overrides config)")
		blockSize   = flag.String("block-size", "", "Block size, e.g. 4MiB (overrides config)")
		workers     = flag.Int("workers", -1, "Hashing goroutines, 0 for sequential (overrides config)")
		checkFile   = flag.String("check", "", "Verify digests recorded in the given checksum file")
		jsonOutput  = flag.Bool("json", false, "Write results as JSON")
		stats       = flag.Bool("stats", false, "Report duplicate-block statistics")
		decompress  = flag.Bool("decompress", false, "Transparently decompress gzip, zstd and lz4 input")
		watchMode   = flag.Bool("watch", false, "Watch the given files and re-hash on change")
		debounceMS  = flag.Int("debounce", -1, "Watch debounce in milliseconds (overrides config)")
		logLevel    = flag.String("log-level", "", "Log level: debug, info, warn, error (overrides config)")
		logFormat   = flag.String("log-format", "", "Log format: text, json (overrides config)")
		noProgress  = flag.Bool("no-progress", false, "Disable the progress bar")
		showVersion = flag.Bool("version", false, "Print version and supported algorithms")
	)

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: contenthash [flags] [file ...]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Computes block-based content hashes. With no files, or with '-',\n")
		fmt.Fprintf(flag.CommandLine.Output(), "reads standard input.\n\nFlags:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("contenthash %s\n", version)
		fmt.Printf("algorithms: %s\n", strings.Join(digest.Names(), ", "))
		return
	}

	// Load configuration
	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(exitUsage)
	}

	// Apply command-line overrides
	if *algorithm != "" {
		cfg.Hashing.Algorithm = *algorithm
	}
	if *blockSize != "" {
		size, err := util.ParseSize(*blockSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid block size: %v\n", err)
			os.Exit(exitUsage)
		}
		cfg.Hashing.BlockSize = *blockSize
		cfg.Hashing.BlockSizeBytes = size
	}
	if *workers >= 0 {
		cfg.Hashing.Workers = *workers
	}
	if *jsonOutput {
		cfg.Output.Format = "json"
	}
	if *stats {
		cfg.Output.Stats = true
	}
	if *noProgress {
		cfg.Output.Progress = "never"
	}
	if *debounceMS >= 0 {
		cfg.Watch.DebounceMS = *debounceMS
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Logging.Format = *logFormat
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", util.FormatError(err))
		os.Exit(exitUsage)
	}

	if err := logging.InitFromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.File); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(exitUsage)
	}

	opts := &options{
		cfg:        cfg,
		decompress: *decompress,
		logger:     logging.GetGlobalLogger().WithComponent("cli"),
	}

	switch {
	case *checkFile != "":
		os.Exit(runCheck(opts, *checkFile))
	case *watchMode:
		os.Exit(runWatch(opts, flag.Args()))
	default:
		os.Exit(runHash(opts, flag.Args()))
	}
}

// loadConfig loads configuration from file or uses defaults
func loadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		// Try default config path
		defaultPath, err := config.GetDefaultConfigPath()
		if err == nil {
			configPath = defaultPath
		}
	}

	return config.LoadConfig(configPath)
}

// jsonMode reports whether results should be machine-readable
func (o *options) jsonMode() bool {
	return o.cfg.Output.Format == "json"
}

// progressEnabled resolves the progress policy. "auto" draws a bar only
// when stderr is a terminal, so piped and redirected runs stay clean.
func (o *options) progressEnabled() bool {
	switch o.cfg.Output.Progress {
	case "always":
		return true
	case "never":
		return false
	default:
		return util.StderrIsTerminal()
	}
}
