package http

import (
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Response is a fully buffered HTTP response
type Response struct {
	StatusCode int
	Status     string
	Headers    map[string]string
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// ValidJSON reports whether the body is a well-formed JSON document
func (r *Response) ValidJSON() bool {
	return gjson.ValidBytes(r.Body)
}

// JSON parses the body. Check ValidJSON first; an invalid body yields an
// empty result.
func (r *Response) JSON() gjson.Result {
	if !r.ValidJSON() {
		return gjson.Result{}
	}
	return gjson.ParseBytes(r.Body)
}

func (r *Response) Header(key string) string {
	for k, v := range r.Headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsOK() bool {
	return r.StatusCode == 200
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
