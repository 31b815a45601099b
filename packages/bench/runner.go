package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"golang.org/x/time/rate"
)

// Config controls a benchmark run
type Config struct {
	// Requests is the number of dispatches to run
	Requests int
	// Concurrency bounds dispatches in flight
	Concurrency int
	// Rate caps dispatch starts per second. Zero means unlimited.
	Rate float64
}

func DefaultConfig() Config {
	return Config{Requests: 100, Concurrency: 5}
}

func (c Config) Validate() error {
	if c.Requests < 1 {
		return fmt.Errorf("requests must be at least 1, got %d", c.Requests)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Rate < 0 {
		return fmt.Errorf("rate must not be negative, got %g", c.Rate)
	}
	return nil
}

// RequestFunc builds the request for iteration i. Requests are built fresh
// each time so placeholders such as uuid() can differ per dispatch.
type RequestFunc func(i int) (*http.Request, error)

// Runner repeats a dispatch according to Config
type Runner struct {
	config     Config
	dispatchOp []dispatch.Option
	progress   func(done, total int)
}

type Option func(*Runner)

// WithDispatchOptions configures every Dispatcher the runner creates
func WithDispatchOptions(opts ...dispatch.Option) Option {
	return func(r *Runner) {
		r.dispatchOp = append(r.dispatchOp, opts...)
	}
}

// WithProgress is called after each finished dispatch
func WithProgress(fn func(done, total int)) Option {
	return func(r *Runner) {
		r.progress = fn
	}
}

func NewRunner(config Config, opts ...Option) (*Runner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{config: config}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run dispatches until Requests have finished or ctx ends. A request that
// fails to build stops the run.
func (r *Runner) Run(ctx context.Context, build RequestFunc) (*Summary, error) {
	metrics := NewMetrics()

	var limiter *rate.Limiter
	if r.config.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.Rate), 1)
	}
	sem := make(chan struct{}, r.config.Concurrency)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		done     int
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
		cancel()
	}

	metrics.Start()
loop:
	for i := 0; i < r.config.Requests; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			break loop
		}

		req, err := build(i)
		if err != nil {
			<-sem
			fail(fmt.Errorf("building request %d: %w", i, err))
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			d := dispatch.New(req, r.dispatchOp...)
			result, err := d.DoUntil(ctx)
			switch {
			case errors.Is(err, dispatch.ErrCancelled):
				metrics.RecordCancelled()
			case err != nil:
				fail(err)
				return
			default:
				metrics.Record(result.Duration, result.IsSuccess(), result.Message())
			}

			mu.Lock()
			done++
			n := done
			mu.Unlock()
			if r.progress != nil {
				r.progress(n, r.config.Requests)
			}
		}()
	}
	wg.Wait()
	metrics.Stop()

	return metrics.Summary(), firstErr
}
