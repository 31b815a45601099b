// Package dispatch sends one encoded request and delivers its outcome.
//
// A Dispatcher moves through Idle, Building, InFlight and then either
// Completed or Cancelled. Every transition is a compare-and-swap on a single
// atomic, so a Cancel racing with the transport completing resolves to
// exactly one winner: either the callback fires once, or it never fires.
//
// Outcomes are classified as follows:
//   - transport error: Failure with the error text
//   - status 200 with a JSON body the Validator accepts: Success
//   - status 200 with a body that is not JSON: Failure("invalid JSON response")
//   - any other status: Failure("request failed")
package dispatch
