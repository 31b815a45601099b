package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Exit codes for the servicecall CLI
const (
	// ExitSuccess indicates the request succeeded
	ExitSuccess = 0

	// ExitRequestFailure indicates the request failed or its response was rejected
	ExitRequestFailure = 1

	// ExitDescriptorError indicates a descriptor that could not be parsed or encoded
	ExitDescriptorError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries the process exit code through cobra. A nil err exits
// quietly because the formatter already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

var exitCodesCmd = &cobra.Command{
	Use:   "exitcodes",
	Short: "List the exit codes servicecall uses",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "%3d  success\n", ExitSuccess)
		fmt.Fprintf(w, "%3d  request failed or response rejected\n", ExitRequestFailure)
		fmt.Fprintf(w, "%3d  descriptor could not be parsed or encoded\n", ExitDescriptorError)
		fmt.Fprintf(w, "%3d  configuration error\n", ExitConfigError)
		fmt.Fprintf(w, "%3d  invalid usage\n", ExitUsageError)
	},
}
