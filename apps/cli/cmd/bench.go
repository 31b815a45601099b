package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/abdul-hamid-achik/servicecall/packages/bench"
	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"github.com/spf13/cobra"
)

var benchCmd = &cobra.Command{
	Use:   "bench <file>",
	Short: "Dispatch a descriptor repeatedly and report latency",
	Long: `Send the request a descriptor describes many times and report success
rate and latency percentiles. The descriptor is re-interpolated for every
request, so {{uuid()}} and {{timestamp()}} differ per dispatch.

Examples:
  servicecall bench user.yaml -n 500 --concurrency 20
  servicecall bench user.yaml -n 1000 --rate 50 --history calls.db`,
	Args: cobra.ExactArgs(1),
	RunE: benchCommand,
}

var (
	benchRequestsFlag    int
	benchConcurrencyFlag int
	benchRateFlag        float64
	benchNoProgressFlag  bool
)

func init() {
	defaults := bench.DefaultConfig()
	benchCmd.Flags().IntVarP(&benchRequestsFlag, "requests", "n", getEnvInt("SERVICECALL_BENCH_REQUESTS", defaults.Requests), "Number of requests to send (env: SERVICECALL_BENCH_REQUESTS)")
	benchCmd.Flags().IntVarP(&benchConcurrencyFlag, "concurrency", "c", getEnvInt("SERVICECALL_CONCURRENCY", 0), "Requests in flight at once, defaults to the config file or 5 (env: SERVICECALL_CONCURRENCY)")
	benchCmd.Flags().Float64VarP(&benchRateFlag, "rate", "r", 0, "Maximum requests started per second (0 = unlimited)")
	benchCmd.Flags().BoolVar(&benchNoProgressFlag, "no-progress", false, "Disable the progress line")
	benchCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("SERVICECALL_ENV_FILE", ""), "Path to .env file for variable interpolation (env: SERVICECALL_ENV_FILE)")
	benchCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable (KEY=value, repeatable)")
	benchCmd.Flags().StringArrayVar(&paramFlags, "param", nil, "Set a request parameter (key=<json>, repeatable, replaces the descriptor's)")
	benchCmd.Flags().StringArrayVar(&expectFlags, "expect", nil, "Require a response field value (path=value, repeatable)")
	benchCmd.Flags().StringVar(&historyFlag, "history", getEnvString("SERVICECALL_HISTORY", ""), "Record every outcome in this SQLite database (env: SERVICECALL_HISTORY)")
}

func benchCommand(cmd *cobra.Command, args []string) error {
	path := args[0]

	overrides := sendOverrides()
	overrides.Concurrency = benchConcurrencyFlag
	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}

	benchConfig := bench.DefaultConfig()
	benchConfig.Requests = benchRequestsFlag
	benchConfig.Rate = benchRateFlag
	if cfg.Concurrency > 0 {
		benchConfig.Concurrency = cfg.Concurrency
	}
	if err := benchConfig.Validate(); err != nil {
		return withExitCode(ExitUsageError, err)
	}

	resolver, err := newResolver(cfg, varFlags, nil)
	if err != nil {
		return err
	}
	// Load once up front so a broken descriptor fails before any request
	desc, err := loadDescriptor(path, resolver)
	if err != nil {
		return err
	}
	validator, err := validatorFor(desc, cfg, expectFlags)
	if err != nil {
		return err
	}
	params, err := parseParams(paramFlags)
	if err != nil {
		return err
	}

	opts := []dispatch.Option{
		dispatch.WithTransport(http.NewClient(cfg.ClientOptions()...)),
		dispatch.WithLogger(newLogger(cmd, cfg)),
		dispatch.WithValidator(validator),
		dispatch.WithEncodeOptions(cfg.EncodeOptions()...),
	}
	store, err := openHistory(cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, dispatch.WithRecorder(store))
	}

	reporter := bench.NewReporter(
		bench.WithWriter(cmd.OutOrStdout()),
		bench.WithNoColor(cfg.GetNoColor()),
	)
	runnerOpts := []bench.Option{bench.WithDispatchOptions(opts...)}
	if !benchNoProgressFlag {
		var mu sync.Mutex
		runnerOpts = append(runnerOpts, bench.WithProgress(func(done, total int) {
			mu.Lock()
			defer mu.Unlock()
			reporter.Progress(done, total)
		}))
	}
	runner, err := bench.NewRunner(benchConfig, runnerOpts...)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter.Header(desc.Name, benchConfig)
	summary, err := runner.Run(ctx, func(i int) (*http.Request, error) {
		if i == 0 {
			return requestFor(desc, cfg, 0, params), nil
		}
		d, err := loadDescriptor(path, resolver)
		if err != nil {
			return nil, err
		}
		return requestFor(d, cfg, 0, params), nil
	})
	if summary != nil {
		reporter.Summary(summary)
	}
	if err != nil {
		return encodeExitCode(err)
	}
	if summary.Failure > 0 {
		return withExitCode(ExitRequestFailure, nil)
	}
	return nil
}
