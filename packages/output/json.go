package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/history"
	"github.com/abdul-hamid-achik/servicecall/packages/http"
)

// JSONResult is the JSON form of a dispatch outcome
type JSONResult struct {
	Name       string          `json:"name"`
	Method     string          `json:"method"`
	URL        string          `json:"url"`
	RequestID  string          `json:"requestId"`
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	DurationMs int64           `json:"durationMs"`
	Body       json.RawMessage `json:"body,omitempty"`
}

// JSONEncoded is the JSON form of an encoded request
type JSONEncoded struct {
	Name          string              `json:"name"`
	Method        string              `json:"method"`
	URL           string              `json:"url"`
	Headers       map[string][]string `json:"headers"`
	Encoding      string              `json:"encoding"`
	ContentLength int64               `json:"contentLength"`
	Streaming     bool                `json:"streaming,omitempty"`
	Body          string              `json:"body,omitempty"`
}

// JSONHistoryEntry is the JSON form of a stored outcome
type JSONHistoryEntry struct {
	RequestID  string `json:"requestId"`
	Method     string `json:"method"`
	URL        string `json:"url"`
	Status     string `json:"status"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
	StartedAt  string `json:"startedAt"`
}

// JSONFormatter writes one indented JSON document per call
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *JSONFormatter) write(v any) {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (f *JSONFormatter) FormatResult(r Report) {
	out := JSONResult{
		Name:       r.Name,
		Method:     r.Method,
		URL:        r.URL,
		RequestID:  r.Result.RequestID,
		Success:    r.Result.IsSuccess(),
		Message:    r.Result.Message(),
		DurationMs: r.Result.Duration.Milliseconds(),
	}
	if r.Result.IsSuccess() {
		out.Body = json.RawMessage(r.Result.Body().Raw)
	}
	f.write(out)
}

func (f *JSONFormatter) FormatEncoded(name string, req *http.EncodedRequest) {
	out := JSONEncoded{
		Name:          name,
		Method:        req.Method.String(),
		URL:           req.URL.String(),
		Headers:       req.Header,
		Encoding:      string(req.Encoding),
		ContentLength: req.ContentLength,
		Streaming:     req.Streaming(),
	}
	if req.Encoding == http.JSONEncoding {
		out.Body = string(req.Body())
	}
	f.write(out)
}

func (f *JSONFormatter) FormatHistory(entries []history.Entry) {
	out := make([]JSONHistoryEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, JSONHistoryEntry{
			RequestID:  e.RequestID,
			Method:     e.Method,
			URL:        e.URL,
			Status:     e.Status,
			Message:    e.Message,
			DurationMs: e.Duration.Milliseconds(),
			StartedAt:  e.StartedAt.UTC().Format(time.RFC3339),
		})
	}
	f.write(out)
}

func (f *JSONFormatter) FormatError(err error) {
	f.write(map[string]string{"error": err.Error()})
}
