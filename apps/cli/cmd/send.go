package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/core/config"
	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"github.com/abdul-hamid-achik/servicecall/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Dispatch the request described by a descriptor file",
	Long: `Build the request a descriptor describes, send it and report the outcome.

Examples:
  servicecall send user.yaml
  servicecall send upload.yaml --env-file .env.staging --stream
  servicecall send user.yaml --var id=42 --expect status=active
  servicecall send user.yaml --param 'tags=["a","b"]' --param limit=10
  servicecall send user.yaml --schema user.schema.json --history calls.db
  servicecall send user.yaml --watch`,
	Args: cobra.ExactArgs(1),
	RunE: sendCommand,
}

var (
	envFileFlag string
	varFlags    []string
	paramFlags  []string
	timeoutFlag string
	schemaFlag  string
	expectFlags []string
	streamFlag  bool
	historyFlag string
	watchFlag   bool
)

func init() {
	sendCmd.Flags().StringVar(&envFileFlag, "env-file", getEnvString("SERVICECALL_ENV_FILE", ""), "Path to .env file for variable interpolation (env: SERVICECALL_ENV_FILE)")
	sendCmd.Flags().StringArrayVar(&varFlags, "var", nil, "Set a variable (KEY=value, repeatable)")
	sendCmd.Flags().StringArrayVar(&paramFlags, "param", nil, "Set a request parameter (key=<json>, repeatable, replaces the descriptor's)")
	sendCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("SERVICECALL_TIMEOUT", ""), "Request timeout, overrides the descriptor (e.g., 10s) (env: SERVICECALL_TIMEOUT)")
	sendCmd.Flags().StringVar(&schemaFlag, "schema", getEnvString("SERVICECALL_SCHEMA", ""), "JSON Schema the response must satisfy (env: SERVICECALL_SCHEMA)")
	sendCmd.Flags().StringArrayVar(&expectFlags, "expect", nil, "Require a response field value (path=value, repeatable)")
	sendCmd.Flags().BoolVar(&streamFlag, "stream", getEnvBool("SERVICECALL_STREAM", false), "Stream multipart bodies from disk instead of buffering (env: SERVICECALL_STREAM)")
	sendCmd.Flags().StringVar(&historyFlag, "history", getEnvString("SERVICECALL_HISTORY", ""), "Record the outcome in this SQLite database (env: SERVICECALL_HISTORY)")
	sendCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Re-send whenever the descriptor or env file changes")
}

func sendOverrides() *config.Config {
	o := &config.Config{
		EnvFile: envFileFlag,
		Schema:  schemaFlag,
		History: historyFlag,
	}
	if streamFlag {
		o.StreamMultipart = config.BoolPtr(true)
	}
	return o
}

func sendCommand(cmd *cobra.Command, args []string) error {
	path := args[0]

	var timeout time.Duration
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil || d < 0 {
			return withExitCode(ExitUsageError, fmt.Errorf("invalid timeout %q", timeoutFlag))
		}
		timeout = d
	}

	cfg, err := loadConfig(sendOverrides())
	if err != nil {
		return err
	}
	formatter, err := newFormatter(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s := &sender{
		cmd:       cmd,
		cfg:       cfg,
		formatter: formatter,
		path:      path,
		timeout:   timeout,
	}

	err = s.send(ctx)
	if !watchFlag {
		return err
	}
	s.report(err)
	return s.watch(ctx)
}

// sender holds everything one dispatch of a descriptor needs
type sender struct {
	cmd       *cobra.Command
	cfg       *config.Config
	formatter output.Formatter
	path      string
	timeout   time.Duration
}

func (s *sender) send(ctx context.Context) error {
	stderr := s.cmd.ErrOrStderr()
	resolver, err := newResolver(s.cfg, varFlags, func(format string, args ...any) {
		fmt.Fprintf(stderr, "warning: "+format+"\n", args...)
	})
	if err != nil {
		return err
	}

	desc, err := loadDescriptor(s.path, resolver)
	if err != nil {
		return err
	}
	validator, err := validatorFor(desc, s.cfg, expectFlags)
	if err != nil {
		return err
	}

	params, err := parseParams(paramFlags)
	if err != nil {
		return err
	}
	req := requestFor(desc, s.cfg, s.timeout, params)

	opts := []dispatch.Option{
		dispatch.WithTransport(http.NewClient(s.cfg.ClientOptions()...)),
		dispatch.WithLogger(newLogger(s.cmd, s.cfg)),
		dispatch.WithValidator(validator),
		dispatch.WithEncodeOptions(s.cfg.EncodeOptions()...),
	}

	store, err := openHistory(s.cfg)
	if err != nil {
		return err
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, dispatch.WithRecorder(store))
	}

	d := dispatch.New(req, opts...)
	result, err := d.DoUntil(ctx)
	if errors.Is(err, dispatch.ErrCancelled) {
		return withExitCode(ExitRequestFailure, err)
	}
	if err != nil {
		return encodeExitCode(err)
	}

	s.formatter.FormatResult(output.Report{
		Name:   desc.Name,
		Method: desc.Method.String(),
		URL:    desc.URL,
		Result: result,
	})
	if !result.IsSuccess() {
		return withExitCode(ExitRequestFailure, nil)
	}
	return nil
}

// report prints send errors the formatter has not already shown
func (s *sender) report(err error) {
	if err == nil {
		return
	}
	var ee *exitError
	if errors.As(err, &ee) && ee.err == nil {
		return
	}
	s.formatter.FormatError(err)
}

func (s *sender) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}
	for _, file := range []string{s.path, s.cfg.EnvFile} {
		if file == "" {
			continue
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			return err
		}
		watched[abs] = true
		// editors often replace files, so watch the directory
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			s.formatter.FormatError(fmt.Errorf("failed to watch %s: %w", file, err))
		}
	}

	out := s.cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	// Debounce: rapid writes collapse into one re-send
	var debounceTimer *time.Timer
	rerun := make(chan string, 1)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			abs, _ := filepath.Abs(event.Name)
			if !watched[abs] || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			name := event.Name
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case rerun <- name:
				default:
				}
			})

		case name := <-rerun:
			fmt.Fprintf(out, "\nFile changed: %s\nRe-sending...\n\n", name)
			s.report(s.send(ctx))
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.formatter.FormatError(fmt.Errorf("watcher error: %w", err))
		}
	}
}
