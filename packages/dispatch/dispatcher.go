package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"github.com/abdul-hamid-achik/servicecall/packages/logging"
	"github.com/google/uuid"
)

// State is a Dispatcher lifecycle state
type State int32

const (
	StateIdle State = iota
	StateBuilding
	StateInFlight
	StateCompleted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBuilding:
		return "building"
	case StateInFlight:
		return "in-flight"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

var (
	ErrAlreadyStarted = errors.New("dispatcher already started")
	ErrCancelled      = errors.New("request cancelled")
)

// Cancelable is anything whose in-flight work can be abandoned
type Cancelable interface {
	Cancel()
	IsCancelable() bool
}

// Outcome is what a Recorder receives once a request has finished
type Outcome struct {
	RequestID string
	Method    string
	URL       string
	Status    string
	Message   string
	Duration  time.Duration
	StartedAt time.Time
}

const (
	OutcomeSuccess   = "success"
	OutcomeFailure   = "failure"
	OutcomeCancelled = "cancelled"
)

// Recorder stores finished outcomes. Errors are logged and otherwise ignored.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Dispatcher sends a single request. It is not reusable: Start succeeds at
// most once.
type Dispatcher struct {
	req        *http.Request
	transport  http.Transport
	logger     logging.Logger
	validator  Validator
	requestID  string
	encodeOpts []http.EncodeOption
	recorder   Recorder

	state   atomic.Int32
	cancel  context.CancelFunc
	started time.Time
	target  string
	done    chan struct{}
}

type Option func(*Dispatcher)

func WithTransport(t http.Transport) Option {
	return func(d *Dispatcher) {
		d.transport = t
	}
}

func WithLogger(l logging.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = l
	}
}

func WithValidator(v Validator) Option {
	return func(d *Dispatcher) {
		d.validator = v
	}
}

// WithRequestID overrides the generated correlation ID
func WithRequestID(id string) Option {
	return func(d *Dispatcher) {
		if id != "" {
			d.requestID = id
		}
	}
}

func WithEncodeOptions(opts ...http.EncodeOption) Option {
	return func(d *Dispatcher) {
		d.encodeOpts = append(d.encodeOpts, opts...)
	}
}

func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) {
		d.recorder = r
	}
}

func New(req *http.Request, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		req:       req,
		logger:    logging.Nop(),
		validator: AcceptAll,
		requestID: uuid.New().String(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.transport == nil {
		d.transport = http.NewClient()
	}
	if d.logger == nil {
		d.logger = logging.Nop()
	}
	if d.validator == nil {
		d.validator = AcceptAll
	}
	return d
}

func (d *Dispatcher) RequestID() string {
	return d.requestID
}

func (d *Dispatcher) State() State {
	return State(d.state.Load())
}

// IsCancelable reports whether Cancel would have an effect right now
func (d *Dispatcher) IsCancelable() bool {
	return d.State() == StateInFlight
}

// Done is closed once the dispatcher reaches a terminal state and any
// callback has returned
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Start encodes the request and sends it in the background. Construction
// errors are returned here and the callback never fires. Otherwise the
// callback runs exactly once on the transport goroutine, unless Cancel wins
// first, in which case it never runs.
func (d *Dispatcher) Start(ctx context.Context, callback func(Result)) error {
	if !d.transition(StateIdle, StateBuilding) {
		return ErrAlreadyStarted
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.req != nil {
		d.target = d.req.Method.String() + " " + d.req.URL
	}
	d.log(logging.PhaseMakeRequest, "building "+d.target)

	encoded, err := http.Encode(d.req, d.encodeOpts...)
	if err != nil {
		d.log(logging.PhaseMakeRequest, err.Error())
		d.state.Store(int32(StateCompleted))
		close(d.done)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.started = time.Now()
	if !d.transition(StateBuilding, StateInFlight) {
		cancel()
		_ = encoded.Close()
		close(d.done)
		return ErrAlreadyStarted
	}

	d.log(logging.PhaseSendRequest, fmt.Sprintf("sending %s %s (%s body, %d bytes)",
		encoded.Method, encoded.URL, encoded.Encoding, encoded.ContentLength))

	go d.run(ctx, encoded, callback)
	return nil
}

func (d *Dispatcher) run(ctx context.Context, encoded *http.EncodedRequest, callback func(Result)) {
	defer close(d.done)
	defer d.cancel()
	defer encoded.Close()

	resp, err := d.transport.Send(ctx, encoded)
	result := d.classify(resp, err)
	result.RequestID = d.requestID
	result.Duration = time.Since(d.started)

	if !d.transition(StateInFlight, StateCompleted) {
		d.log(logging.PhaseGetResponse, "cancelled, dropping outcome")
		d.record(OutcomeCancelled, ErrCancelled.Error(), result.Duration)
		return
	}

	if result.IsSuccess() {
		d.log(logging.PhaseGetResponse, fmt.Sprintf("success in %dms", result.Duration.Milliseconds()))
	} else {
		d.log(logging.PhaseGetResponse, fmt.Sprintf("failure in %dms: %s", result.Duration.Milliseconds(), result.Message()))
	}

	if callback != nil {
		callback(result)
	}

	status := OutcomeSuccess
	if !result.IsSuccess() {
		status = OutcomeFailure
	}
	d.record(status, result.Message(), result.Duration)
}

func (d *Dispatcher) classify(resp *http.Response, err error) Result {
	if err != nil {
		return Failure(err.Error())
	}
	if resp == nil || !resp.IsOK() {
		return Failure(MessageRequestFailed)
	}
	if !resp.ValidJSON() {
		return Failure(MessageInvalidJSON)
	}

	body := resp.JSON()
	if ok, reason := d.validator(body); !ok {
		if reason == "" {
			reason = MessageRejected
		}
		return Failure(reason)
	}
	return Success(body)
}

// Cancel abandons an in-flight request. It does nothing in any other state.
func (d *Dispatcher) Cancel() {
	if !d.transition(StateInFlight, StateCancelled) {
		return
	}
	d.cancel()
	d.log(logging.PhaseSendRequest, "cancel requested")
}

// Do starts the request and waits for its outcome. A cancelled request
// returns ErrCancelled.
func (d *Dispatcher) Do(ctx context.Context) (Result, error) {
	results := make(chan Result, 1)
	if err := d.Start(ctx, func(r Result) { results <- r }); err != nil {
		return Result{}, err
	}

	<-d.done
	select {
	case r := <-results:
		return r, nil
	default:
		return Result{}, ErrCancelled
	}
}

// DoUntil starts the request detached from ctx and cancels it if ctx ends
// before the outcome arrives. Unlike Do, an interrupted request returns
// ErrCancelled instead of a transport failure.
func (d *Dispatcher) DoUntil(ctx context.Context) (Result, error) {
	results := make(chan Result, 1)
	if err := d.Start(context.Background(), func(r Result) { results <- r }); err != nil {
		return Result{}, err
	}

	select {
	case <-d.done:
	case <-ctx.Done():
		d.Cancel()
		<-d.done
	}

	select {
	case r := <-results:
		return r, nil
	default:
		return Result{}, ErrCancelled
	}
}

func (d *Dispatcher) transition(from, to State) bool {
	return d.state.CompareAndSwap(int32(from), int32(to))
}

func (d *Dispatcher) log(phase logging.Phase, message string) {
	d.logger.Log(d.requestID, phase, message)
}

func (d *Dispatcher) record(status, message string, duration time.Duration) {
	if d.recorder == nil {
		return
	}
	o := Outcome{
		RequestID: d.requestID,
		Status:    status,
		Message:   message,
		Duration:  duration,
		StartedAt: d.started,
	}
	if d.req != nil {
		o.Method = d.req.Method.String()
		o.URL = d.req.URL
	}
	if err := d.recorder.Record(context.Background(), o); err != nil {
		d.log(logging.PhaseGetResponse, "recording outcome: "+err.Error())
	}
}

var _ Cancelable = (*Dispatcher)(nil)
