package http

import (
	"fmt"
	neturl "net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/core/value"
)

// Method is one of the HTTP methods a Request supports
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// ParseMethod parses a method name, ignoring case
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMethod, s)
	}
	return m, nil
}

func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete:
		return true
	}
	return false
}

// HasBody reports whether parameters travel in the request body
func (m Method) HasBody() bool {
	return m == MethodPost || m == MethodPut
}

func (m Method) String() string {
	return string(m)
}

// Header is a single request header
type Header struct {
	Name  string
	Value string
}

// Param is a single request parameter
type Param struct {
	Key   string
	Value value.Value
}

// FileEntry is a file to upload. Exactly one of Data and Path must be set.
type FileEntry struct {
	Key      string
	Data     []byte
	Path     string
	MimeType string
	FileName string
}

func (f FileEntry) validate() error {
	if strings.TrimSpace(f.Key) == "" {
		return fmt.Errorf("%w: file entry has no key", ErrInvalidFile)
	}
	hasData := f.Data != nil
	hasPath := f.Path != ""
	if hasData == hasPath {
		return fmt.Errorf("%w: file %q needs exactly one of data or path", ErrInvalidFile, f.Key)
	}
	return nil
}

const (
	// DefaultRequestTimeout applies when a Request carries no timeout
	DefaultRequestTimeout = 10 * time.Second
)

// Request describes a request before encoding. It is built once by the
// caller and only read by Encode.
type Request struct {
	Method  Method
	URL     string
	Headers []Header
	Params  []Param
	Files   []FileEntry
	Timeout time.Duration
}

func NewRequest(method Method, requestURL string) *Request {
	return &Request{
		Method:  method,
		URL:     requestURL,
		Timeout: DefaultRequestTimeout,
	}
}

// AddHeader appends a header, keeping any existing value of the same name
func (r *Request) AddHeader(name, value string) *Request {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
	return r
}

// SetHeader replaces every header named name (case-insensitive) with a
// single value
func (r *Request) SetHeader(name, value string) *Request {
	kept := r.Headers[:0]
	replaced := false
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			if !replaced {
				kept = append(kept, Header{Name: name, Value: value})
				replaced = true
			}
			continue
		}
		kept = append(kept, h)
	}
	if !replaced {
		kept = append(kept, Header{Name: name, Value: value})
	}
	r.Headers = kept
	return r
}

// Header returns the first value of the named header
func (r *Request) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func (r *Request) AddParam(key string, v value.Value) *Request {
	r.Params = append(r.Params, Param{Key: key, Value: v})
	return r
}

// SetParam replaces every parameter named key with a single one at the end
func (r *Request) SetParam(key string, v value.Value) *Request {
	params := r.Params[:0]
	for _, p := range r.Params {
		if p.Key != key {
			params = append(params, p)
		}
	}
	r.Params = append(params, Param{Key: key, Value: v})
	return r
}

func (r *Request) AddFile(f FileEntry) *Request {
	r.Files = append(r.Files, f)
	return r
}

// AddFilePath uploads the file at path under key
func (r *Request) AddFilePath(key, path string) *Request {
	return r.AddFile(FileEntry{Key: key, Path: path})
}

// AddFileData uploads data under key. mimeType and fileName may be empty.
func (r *Request) AddFileData(key string, data []byte, mimeType, fileName string) *Request {
	if data == nil {
		data = []byte{}
	}
	return r.AddFile(FileEntry{Key: key, Data: data, MimeType: mimeType, FileName: fileName})
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

// HasFiles reports whether the request will be sent as multipart/form-data.
// Files are ignored for methods without a body.
func (r *Request) HasFiles() bool {
	return r.Method.HasBody() && len(r.Files) > 0
}

// Validate checks everything that can be checked without touching files or
// the network.
func (r *Request) Validate() error {
	if !r.Method.Valid() {
		return constructionError("validate", fmt.Errorf("%w: %q", ErrInvalidMethod, r.Method))
	}
	if err := ValidateURL(r.URL); err != nil {
		return constructionError("validate", err)
	}
	if r.Timeout < 0 {
		return constructionError("validate", fmt.Errorf("negative timeout %s", r.Timeout))
	}
	for _, h := range r.Headers {
		if strings.TrimSpace(h.Name) == "" {
			return constructionError("validate", fmt.Errorf("header with empty name"))
		}
	}
	if r.HasFiles() {
		for _, f := range r.Files {
			if err := f.validate(); err != nil {
				return constructionError("validate", err)
			}
		}
	}
	return nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Errorf("%w: empty url", ErrInvalidURL)
	}

	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	// Check for valid scheme
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported URL scheme: %s (only http and https are allowed)", ErrInvalidURL, u.Scheme)
	}

	// Check for valid host
	if u.Host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidURL)
	}

	return nil
}
