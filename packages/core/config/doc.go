// Package config loads servicecall settings from a JSON file.
//
// The first of .servicecall.config.json, servicecall.config.json and
// .servicecallrc found in the working directory is used; otherwise the
// defaults apply. Command-line flags are merged on top with Merge.
package config
