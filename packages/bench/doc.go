// Package bench dispatches one request repeatedly and reports latency.
//
// Each iteration runs a fresh dispatch.Dispatcher, so encoding cost and the
// validation hook are part of every measurement. Concurrency is bounded by a
// semaphore and an optional token bucket caps the start rate. Latencies are
// kept in an HDR histogram for p50/p95/p99.
package bench
