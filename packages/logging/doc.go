// Package logging reports the phases a request passes through.
//
// Every message carries the request ID and the phase it belongs to:
//   - MakeRequest: the request is being validated and encoded
//   - SendRequest: the request has been handed to the transport
//   - GetResponse: the outcome has been classified
//
// Loggers must be safe for concurrent use.
package logging
