package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/mediaid/mediaid/pkg/cli"
)

// Environment variables read after .env is loaded.
const (
	envConfig   = "MEDIAID_CONFIG"
	envContext  = "MEDIAID_CONTEXT"
	envLogLevel = "MEDIAID_LOG_LEVEL"
)

var (
	// Global flags
	cfgFile     string
	contextName string
	outputJSON  bool
	outputYAML  bool
	verbose     bool
	logFile     string

	// Global configuration (loaded at init time)
	globalConfig *cli.Config

	// configLoadErr stores the error from cli.LoadConfig for deferred reporting.
	configLoadErr error

	logCloser io.Closer

	styles = cli.NewStyles(cli.DefaultTheme)
)

var rootCmd = &cobra.Command{
	Use:   "mediaid",
	Short: "Face and voice classification toolkit",
	Long: `mediaid - classic machine-learning pipelines for faces and voices.

Pipelines:
  face     grayscale histograms + K-nearest-neighbours, one run per name
  voice    record clips, split long recordings, identify speakers with MFCC + SVM

Configuration is stored in ~/.mediaid/config.yaml and supports multiple
contexts, similar to kubectl's context management. A context names a
dataset layout: image folder, label table, voice folder and speakers.

Examples:
  # Classify the faces of the current context
  mediaid face run

  # Record 5 seconds of kana, then cut it into 1 second clips
  mediaid voice record --name kana --seconds 5
  mediaid voice split --name kana --number 0 --start 0 --cut 1

  # Evaluate speaker identification as JSON
  mediaid voice eval --json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.mediaid/config.yaml, env "+envConfig+")")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use (env "+envContext+")")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().BoolVar(&outputYAML, "yaml", false, "output as YAML")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to a rotated file instead of stderr")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()

	if cfgFile == "" {
		cfgFile = os.Getenv(envConfig)
	}
	if contextName == "" {
		contextName = os.Getenv(envContext)
	}

	globalConfig, configLoadErr = nil, nil
	cfg, err := cli.LoadConfig(cfgFile)
	if err != nil {
		// Commands that need config report this via getConfig, so
		// 'mediaid version' still works without a home directory.
		configLoadErr = err
		return
	}
	globalConfig = cfg
}

// getConfig returns the global configuration.
func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		if configLoadErr != nil {
			return nil, fmt.Errorf("config not available: %w", configLoadErr)
		}
		return nil, fmt.Errorf("configuration not initialized")
	}
	return globalConfig, nil
}

// getContext returns the context named by -c, or the current one.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	return cfg.ResolveContext(contextName)
}

// setupLogging installs the default slog logger. Precedence for the level:
// -v, then MEDIAID_LOG_LEVEL, then the context's log.level.
func setupLogging() error {
	logCfg := cli.LogConfig{}
	if ctx, err := getContext(); err == nil {
		logCfg = ctx.Log
		if logCfg.File != "" {
			if paths, err := cli.NewPaths(); err == nil {
				logCfg.File = paths.LogPath(logCfg.File)
			}
		}
	}
	if lvl := os.Getenv(envLogLevel); lvl != "" {
		logCfg.Level = lvl
	}
	if verbose {
		logCfg.Level = "debug"
	}
	if logFile != "" {
		logCfg.File = logFile
	}

	logger, closer, err := cli.NewLogger(logCfg, os.Stderr)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	logCloser = closer
	return nil
}

// outputFormat returns the format selected by --json / --yaml.
func outputFormat() cli.OutputFormat {
	return cli.FormatFromFlags(outputJSON, outputYAML)
}

// outputResult renders a result in the structured output format.
func outputResult(result any) error {
	return cli.Output(result, cli.OutputOptions{Format: outputFormat()})
}

// progressWriter is where progress bars render: stderr for humans,
// nowhere when the output is meant for a pipe.
func progressWriter() io.Writer {
	if outputFormat().Structured() {
		return nil
	}
	return os.Stderr
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			slog.Info("interrupted, shutting down")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
