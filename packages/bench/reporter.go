package bench

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Reporter prints benchmark summaries
type Reporter struct {
	writer  io.Writer
	noColor bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
	dim    *color.Color
}

type ReporterOption func(*Reporter)

func WithWriter(w io.Writer) ReporterOption {
	return func(r *Reporter) {
		r.writer = w
	}
}

func WithNoColor(noColor bool) ReporterOption {
	return func(r *Reporter) {
		r.noColor = noColor
	}
}

func NewReporter(opts ...ReporterOption) *Reporter {
	r := &Reporter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.green = color.New(color.FgGreen)
	r.red = color.New(color.FgRed)
	r.yellow = color.New(color.FgYellow)
	r.cyan = color.New(color.FgCyan)
	r.bold = color.New(color.Bold)
	r.dim = color.New(color.Faint)
	if r.noColor {
		for _, c := range []*color.Color{r.green, r.red, r.yellow, r.cyan, r.bold, r.dim} {
			c.DisableColor()
		}
	}
	return r
}

// Header prints what is about to run
func (r *Reporter) Header(name string, config Config) {
	fmt.Fprintln(r.writer)
	r.cyan.Fprintf(r.writer, "Benchmarking: %s\n", name)

	details := []string{
		fmt.Sprintf("Requests: %d", config.Requests),
		fmt.Sprintf("Concurrency: %d", config.Concurrency),
	}
	if config.Rate > 0 {
		details = append(details, fmt.Sprintf("Rate: %g req/s", config.Rate))
	}
	fmt.Fprintf(r.writer, "%s\n\n", strings.Join(details, " | "))
}

// Progress rewrites a single status line
func (r *Reporter) Progress(done, total int) {
	fmt.Fprintf(r.writer, "\r\033[K%s %d/%d", r.dim.Sprint("progress"), done, total)
	if done == total {
		fmt.Fprintln(r.writer)
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}

// Summary prints the final results
func (r *Reporter) Summary(s *Summary) {
	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "Results")

	fmt.Fprintf(r.writer, "  Total:      %d in %s (%.1f req/s)\n", s.Total, formatDuration(s.Duration), s.RPS)
	fmt.Fprintf(r.writer, "  Success:    %s\n", r.green.Sprintf("%d (%.1f%%)", s.Success, s.SuccessRate*100))

	failure := r.green
	if s.Failure > 0 {
		failure = r.red
	}
	fmt.Fprintf(r.writer, "  Failure:    %s\n", failure.Sprintf("%d", s.Failure))
	if s.Cancelled > 0 {
		fmt.Fprintf(r.writer, "  Cancelled:  %s\n", r.yellow.Sprintf("%d", s.Cancelled))
	}

	fmt.Fprintln(r.writer)
	r.bold.Fprintln(r.writer, "Latency")
	fmt.Fprintf(r.writer, "  min %s  mean %s  max %s\n",
		formatDuration(s.Min), formatDuration(s.Mean), formatDuration(s.Max))
	fmt.Fprintf(r.writer, "  p50 %s  p95 %s  p99 %s\n",
		formatDuration(s.P50), formatDuration(s.P95), formatDuration(s.P99))

	if len(s.Reasons) > 0 {
		fmt.Fprintln(r.writer)
		r.bold.Fprintln(r.writer, "Failures")
		for _, reason := range s.Reasons {
			fmt.Fprintf(r.writer, "  %s %s\n", r.red.Sprintf("%6d", reason.Count), reason.Message)
		}
	}
	fmt.Fprintln(r.writer)
}
