// Package history stores dispatch outcomes in a SQLite database.
//
// Store implements dispatch.Recorder, so passing it to dispatch.WithRecorder
// records every finished request, including cancelled ones.
package history
