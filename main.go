package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"valyxo/logging"
	"valyxo/repl"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		workspace   = flag.String("workspace", "", "Path to the workspace directory")
		execFile    = flag.String("exec", "", "Execute a .vx file in batch mode")
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		verbose     = flag.Bool("verbose", false, "Enable verbose (debug) logging")
	)
	flag.Parse()

	if *showVersion {
		if *verbose {
			fmt.Printf("valyxo v%s - developer ecosystem shell\n", repl.Version)
			fmt.Println("Build: development")
		} else {
			fmt.Printf("valyxo v%s\n", repl.Version)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// Shebang execution: valyxo script.vx
	scriptFile := *execFile
	if scriptFile == "" {
		if args := flag.Args(); len(args) > 0 && strings.HasSuffix(args[0], ".vx") {
			scriptFile = args[0]
		}
	}

	cfg, err := LoadConfig(findConfigFile(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *workspace != "" {
		cfg.Workspace.Dir = *workspace
	}

	logger, err := buildLogger(cfg, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}

	if scriptFile != "" {
		if err := BatchMode(scriptFile, cfg, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	shell, err := repl.New(repl.Config{
		WorkspaceDir:  expandHome(cfg.Workspace.Dir),
		HistoryFile:   expandHome(cfg.REPL.HistoryFile),
		HistorySize:   cfg.REPL.HistorySize,
		MaxIterations: cfg.Script.MaxIterations,
		JobLimit:      cfg.Jobs.Limit,
		ForceColors:   cfg.REPL.ForceColors,
		ShowBanner:    cfg.REPL.ShowBanner,
		Logger:        logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := shell.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// buildLogger assembles the logger from configuration. Without a log file
// everything goes to stderr as text; with one, structured JSON goes to the
// file instead.
func buildLogger(cfg *Config, verbose bool) (logging.Logger, error) {
	loggerConfig := logging.LoggerConfig{}
	loggerConfig.ApplyLogLevel(cfg.Logging.Level)
	if verbose {
		loggerConfig.Level = logging.LevelDebug
	}

	if cfg.Logging.File != "" {
		if cfg.Logging.MaxSizeKB > 0 {
			loggerConfig.Rotation = &logging.RotationConfig{
				MaxSize:    cfg.Logging.MaxSizeKB * 1024,
				MaxBackups: cfg.Logging.MaxBackups,
			}
		}
		writer, err := logging.CreateFileWriter(expandHome(cfg.Logging.File), &loggerConfig)
		if err != nil {
			return nil, err
		}
		loggerConfig.Formatters = []logging.Formatter{logging.NewJSONFormatter()}
		loggerConfig.Writers = []logging.Writer{writer}
	}

	return logging.NewDefaultLoggerWithConfig(loggerConfig), nil
}

// printHelp displays help information
func printHelp() {
	fmt.Println("valyxo - developer ecosystem shell")
	fmt.Println()
	fmt.Println("Usage: valyxo [options]")
	fmt.Println("Run script: valyxo <path-to-file.vx>")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>      Path to configuration file (YAML or JSON)")
	fmt.Println("  --workspace <path>   Workspace directory (overrides configuration)")
	fmt.Println("  --exec <file>        Execute a .vx file in batch mode")
	fmt.Println("  --version            Show version information")
	fmt.Println("  --verbose            Enable debug logging")
	fmt.Println("  --help               Show this help message")
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  VALYXO_CONFIG        Path to configuration file")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  valyxo                        Run the shell with default configuration")
	fmt.Println("  valyxo build.vx               Run a script file")
	fmt.Println("  valyxo --config valyxo.yaml   Run with custom configuration")
	fmt.Println()
	fmt.Println("Configuration files are searched in the following order:")
	fmt.Println("  1. Path specified by --config flag")
	fmt.Println("  2. Path specified by VALYXO_CONFIG environment variable")
	fmt.Println("  3. Default locations: ~/.valyxo/config.yaml, ./valyxo.yaml")
}
