// Package cmd implements the servicecall CLI commands using Cobra.
//
// Available commands:
//   - send: Dispatch the request a descriptor file describes
//   - validate: Encode a descriptor without sending it
//   - bench: Dispatch a descriptor repeatedly and report latency percentiles
//   - history: Show outcomes recorded in the history database
//   - version: Show servicecall version information
//   - exitcodes: List process exit codes
//
// Flags fall back to SERVICECALL_* environment variables, then to the
// config file, then to built-in defaults.
package cmd
