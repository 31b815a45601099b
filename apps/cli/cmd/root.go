package cmd

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/abdul-hamid-achik/servicecall/packages/core/config"
	"github.com/abdul-hamid-achik/servicecall/packages/logging"
	"github.com/abdul-hamid-achik/servicecall/packages/output"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag  string
	outputFlag  string
	verboseFlag bool
	noColorFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "servicecall",
	Short: "Describe an HTTP call once, dispatch it anywhere.",
	Long: `servicecall builds HTTP requests from small YAML descriptors and sends
them. GET and DELETE parameters go into the query string, POST and PUT
parameters become a JSON body, and file attachments switch the body to
multipart/form-data.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	os.Exit(run())
}

func run() int {
	err := rootCmd.Execute()
	if err == nil {
		return ExitSuccess
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return ExitUsageError
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("SERVICECALL_CONFIG", ""), "Path to config file (env: SERVICECALL_CONFIG)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", getEnvString("SERVICECALL_OUTPUT", output.FormatConsole), "Output format: console, json (env: SERVICECALL_OUTPUT)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("SERVICECALL_VERBOSE", false), "Log every dispatch phase (env: SERVICECALL_VERBOSE)")
	rootCmd.PersistentFlags().BoolVar(&noColorFlag, "no-color", getEnvBool("SERVICECALL_NO_COLOR", false), "Disable colored output (env: SERVICECALL_NO_COLOR)")

	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(exitCodesCmd)
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// loadConfig reads the config file and layers the persistent flags on top.
// Command specific overrides are merged in by the caller.
func loadConfig(overrides ...*config.Config) (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	flags := &config.Config{}
	if verboseFlag {
		flags.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		flags.NoColor = config.BoolPtr(true)
	}
	cfg = cfg.Merge(flags)
	for _, o := range overrides {
		cfg = cfg.Merge(o)
	}
	if err := cfg.Validate(); err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return cfg, nil
}

func newFormatter(cmd *cobra.Command, cfg *config.Config) (output.Formatter, error) {
	f, err := output.New(outputFlag,
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(cfg.GetVerbose()),
		output.WithNoColor(cfg.GetNoColor()),
	)
	if err != nil {
		return nil, withExitCode(ExitUsageError, err)
	}
	return f, nil
}

// newLogger writes dispatch phases to stderr when verbose, so stdout stays
// parseable with --output json
func newLogger(cmd *cobra.Command, cfg *config.Config) logging.Logger {
	if !cfg.GetVerbose() {
		return logging.Nop()
	}
	return logging.NewConsole(
		logging.WithWriter(cmd.ErrOrStderr()),
		logging.WithNoColor(cfg.GetNoColor()),
	)
}
