package dispatch

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"
)

const (
	MessageRequestFailed = "request failed"
	MessageInvalidJSON   = "invalid JSON response"
	MessageRejected      = "response rejected by validator"
)

// Result is either a Success carrying the parsed body or a Failure carrying
// a readable reason. RequestID and Duration are diagnostics only.
type Result struct {
	success bool
	body    gjson.Result
	message string

	RequestID string
	Duration  time.Duration
}

func Success(body gjson.Result) Result {
	return Result{success: true, body: body}
}

func Failure(message string) Result {
	return Result{message: message}
}

func (r Result) IsSuccess() bool {
	return r.success
}

// Body is the parsed response. It is empty for a Failure.
func (r Result) Body() gjson.Result {
	return r.body
}

// Message is the failure reason. It is empty for a Success.
func (r Result) Message() string {
	return r.message
}

// Err returns nil for a Success and an error carrying the reason otherwise
func (r Result) Err() error {
	if r.success {
		return nil
	}
	return fmt.Errorf("%s", r.message)
}

func (r Result) String() string {
	if r.success {
		return "success"
	}
	return "failure: " + r.message
}
