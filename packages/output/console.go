package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/history"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/pretty"
)

const maxBodyPreview = 2048

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool

	green  *color.Color
	red    *color.Color
	yellow *color.Color
	cyan   *color.Color
	bold   *color.Color
	dim    *color.Color
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.green = color.New(color.FgGreen)
	f.red = color.New(color.FgRed)
	f.yellow = color.New(color.FgYellow)
	f.cyan = color.New(color.FgCyan)
	f.bold = color.New(color.Bold)
	f.dim = color.New(color.Faint)
	if f.noColor {
		for _, c := range []*color.Color{f.green, f.red, f.yellow, f.cyan, f.bold, f.dim} {
			c.DisableColor()
		}
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// prettyJSON indents raw JSON, coloring it when color is enabled
func (f *ConsoleFormatter) prettyJSON(raw []byte) string {
	out := pretty.Pretty(raw)
	if !f.noColor && !color.NoColor {
		out = pretty.Color(out, nil)
	}
	return strings.TrimRight(string(out), "\n")
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + fmt.Sprintf("... (%d more bytes)", len(s)-n)
}

func (f *ConsoleFormatter) FormatResult(r Report) {
	res := r.Result
	timing := f.cyan.Sprintf("(%dms)", res.Duration.Milliseconds())

	if res.IsSuccess() {
		fmt.Fprintf(f.writer, "%s %s %s\n", f.green.Sprint("✓"), f.bold.Sprint(r.Name), timing)
	} else {
		fmt.Fprintf(f.writer, "%s %s %s\n", f.red.Sprint("✗"), f.bold.Sprint(r.Name), timing)
		fmt.Fprintf(f.writer, "    %s %s\n", f.red.Sprint("→"), res.Message())
	}

	if f.verbose {
		fmt.Fprintf(f.writer, "    %s %s\n", r.Method, r.URL)
		fmt.Fprintf(f.writer, "    %s\n", f.dim.Sprintf("request id %s", res.RequestID))
	}

	if res.IsSuccess() && (f.verbose || len(res.Body().Raw) <= maxBodyPreview) {
		fmt.Fprintln(f.writer, indent(f.prettyJSON([]byte(res.Body().Raw)), "    "))
	} else if res.IsSuccess() {
		fmt.Fprintf(f.writer, "    %s\n", f.dim.Sprintf("body of %d bytes, use --verbose to show it", len(res.Body().Raw)))
	}
}

func (f *ConsoleFormatter) FormatEncoded(name string, req *http.EncodedRequest) {
	fmt.Fprintf(f.writer, "%s %s\n", f.green.Sprint("✓"), f.bold.Sprint(name))
	fmt.Fprintf(f.writer, "    %s %s\n", f.cyan.Sprint(req.Method), req.URL)

	names := make([]string, 0, len(req.Header))
	for k := range req.Header {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		for _, v := range req.Header[k] {
			fmt.Fprintf(f.writer, "    %s: %s\n", k, v)
		}
	}

	switch {
	case req.Streaming():
		fmt.Fprintf(f.writer, "    %s\n", f.dim.Sprintf("%s body, %d bytes, streamed", req.Encoding, req.ContentLength))
	case req.Body() != nil:
		fmt.Fprintf(f.writer, "    %s\n", f.dim.Sprintf("%s body, %d bytes", req.Encoding, req.ContentLength))
		if f.verbose && req.Encoding == http.JSONEncoding {
			fmt.Fprintln(f.writer, indent(f.prettyJSON(req.Body()), "    "))
		} else if f.verbose {
			fmt.Fprintln(f.writer, indent(truncate(string(req.Body()), maxBodyPreview), "    "))
		}
	default:
		fmt.Fprintf(f.writer, "    %s\n", f.dim.Sprint("no body"))
	}
}

func (f *ConsoleFormatter) FormatHistory(entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(f.writer, f.dim.Sprint("no dispatches recorded"))
		return
	}

	for _, e := range entries {
		var status string
		switch e.Status {
		case dispatch.OutcomeSuccess:
			status = f.green.Sprintf("%-9s", e.Status)
		case dispatch.OutcomeCancelled:
			status = f.yellow.Sprintf("%-9s", e.Status)
		default:
			status = f.red.Sprintf("%-9s", e.Status)
		}

		fmt.Fprintf(f.writer, "%s %s %-6s %s %s\n",
			f.dim.Sprint(e.StartedAt.Format("2006-01-02 15:04:05")),
			status, e.Method, e.URL,
			f.cyan.Sprintf("(%dms)", e.Duration.Milliseconds()))
		if e.Message != "" && f.verbose {
			fmt.Fprintf(f.writer, "    %s\n", e.Message)
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "%s %v\n", f.red.Sprint("Error:"), err)
}
