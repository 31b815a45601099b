package output

import (
	"fmt"

	"github.com/abdul-hamid-achik/servicecall/packages/dispatch"
	"github.com/abdul-hamid-achik/servicecall/packages/history"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
)

// Report is a finished dispatch together with what was sent
type Report struct {
	Name   string
	Method string
	URL    string
	Result dispatch.Result
}

// Formatter renders command output
type Formatter interface {
	FormatResult(r Report)
	FormatEncoded(name string, req *http.EncodedRequest)
	FormatHistory(entries []history.Entry)
	FormatError(err error)
}

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)


// New returns the formatter registered under name
func New(name string, opts ...ConsoleOption) (Formatter, error) {
	switch name {
	case "", FormatConsole:
		return NewConsoleFormatter(opts...), nil
	case FormatJSON:
		c := NewConsoleFormatter(opts...)
		return NewJSONFormatter(WithJSONWriter(c.writer)), nil
	}
	return nil, fmt.Errorf("unknown output format %q (want %s or %s)", name, FormatConsole, FormatJSON)
}
