// Package output renders dispatch results, encoded requests and history.
//
// Supported output formats:
//   - Console: human-readable colored terminal output
//   - JSON: one machine-readable document per call
package output
