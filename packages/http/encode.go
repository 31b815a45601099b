package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/core/value"
	"github.com/abdul-hamid-achik/servicecall/packages/multipart"
	"github.com/abdul-hamid-achik/servicecall/packages/query"
)

// BodyEncoding names how the parameters of a request were encoded
type BodyEncoding string

const (
	URLEncoding       BodyEncoding = "url"
	JSONEncoding      BodyEncoding = "json"
	MultipartEncoding BodyEncoding = "multipart"
)

const (
	ContentTypeJSON = "application/json"
)

// EncodedRequest is a transport-ready request. It is not modified after
// Encode returns.
type EncodedRequest struct {
	Method        Method
	URL           *neturl.URL
	Header        http.Header
	Encoding      BodyEncoding
	ContentLength int64
	Timeout       time.Duration

	body       []byte
	bodyReader io.ReadCloser
}

// Body returns the buffered body. It is nil for streaming bodies and for
// requests without a body.
func (e *EncodedRequest) Body() []byte {
	return e.body
}

// Streaming reports whether the body is produced while it is sent
func (e *EncodedRequest) Streaming() bool {
	return e.bodyReader != nil
}

// NewBody returns a reader over the body. A streaming body can be read once.
func (e *EncodedRequest) NewBody() io.Reader {
	if e.bodyReader != nil {
		return e.bodyReader
	}
	if e.body == nil {
		return nil
	}
	return bytes.NewReader(e.body)
}

// Close releases a streaming body that was never sent
func (e *EncodedRequest) Close() error {
	if e.bodyReader != nil {
		return e.bodyReader.Close()
	}
	return nil
}

// HTTPRequest builds the net/http request for e
func (e *EncodedRequest) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, e.Method.String(), e.URL.String(), e.NewBody())
	if err != nil {
		return nil, err
	}
	req.Header = e.Header.Clone()
	if e.ContentLength > 0 {
		req.ContentLength = e.ContentLength
	}
	if e.body != nil {
		body := e.body
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	return req, nil
}

type encodeOptions struct {
	streamMultipart  bool
	multipartOptions []multipart.Option
}

type EncodeOption func(*encodeOptions)

// WithStreamingMultipart makes multipart bodies stream from their sources
// while the request is sent instead of being buffered first
func WithStreamingMultipart() EncodeOption {
	return func(o *encodeOptions) {
		o.streamMultipart = true
	}
}

// WithMultipartOptions passes options to the multipart builder
func WithMultipartOptions(opts ...multipart.Option) EncodeOption {
	return func(o *encodeOptions) {
		o.multipartOptions = append(o.multipartOptions, opts...)
	}
}

// Encode validates req and produces its wire form. GET and DELETE carry
// parameters in the query string; POST and PUT send them as a JSON object,
// or as multipart/form-data when the request has files.
func Encode(req *Request, opts ...EncodeOption) (*EncodedRequest, error) {
	if req == nil {
		return nil, constructionError("encode", fmt.Errorf("nil request"))
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o := &encodeOptions{}
	for _, opt := range opts {
		opt(o)
	}

	header := make(http.Header)
	for _, h := range req.Headers {
		header.Add(h.Name, h.Value)
	}

	encoded := &EncodedRequest{
		Method:  req.Method,
		Header:  header,
		Timeout: req.Timeout,
	}

	var err error
	switch {
	case !req.Method.HasBody():
		err = encodeURL(req, encoded)
	case req.HasFiles():
		err = encodeMultipart(req, encoded, o)
	default:
		err = encodeJSON(req, encoded)
	}
	if err != nil {
		return nil, err
	}
	return encoded, nil
}

func pairs(params []Param) []query.Pair {
	out := make([]query.Pair, 0, len(params))
	for _, p := range params {
		out = append(out, query.Pair{Key: p.Key, Value: p.Value})
	}
	return out
}

func encodeURL(req *Request, encoded *EncodedRequest) error {
	u, err := query.EncodeParamToURL(req.URL, pairs(req.Params))
	if err != nil {
		return constructionError("url encode", err)
	}
	encoded.URL = u
	encoded.Encoding = URLEncoding
	return nil
}

func parseTarget(req *Request) (*neturl.URL, error) {
	u, err := neturl.Parse(req.URL)
	if err != nil {
		return nil, constructionError("parse url", fmt.Errorf("%w: %v", ErrInvalidURL, err))
	}
	return u, nil
}

// jsonObject collects params into one object. A repeated key keeps its first
// position and its last value.
func jsonObject(params []Param) value.Value {
	members := make([]value.Member, 0, len(params))
	index := make(map[string]int, len(params))
	for _, p := range params {
		if i, ok := index[p.Key]; ok {
			members[i].Value = p.Value
			continue
		}
		index[p.Key] = len(members)
		members = append(members, value.Member{Key: p.Key, Value: p.Value})
	}
	return value.Object(members...)
}

func encodeJSON(req *Request, encoded *EncodedRequest) error {
	u, err := parseTarget(req)
	if err != nil {
		return err
	}

	body, err := json.Marshal(jsonObject(req.Params))
	if err != nil {
		return constructionError("json encode", fmt.Errorf("%w: %v", ErrBodyEncoding, err))
	}

	encoded.URL = u
	encoded.Encoding = JSONEncoding
	encoded.Header.Set("Content-Type", ContentTypeJSON)
	encoded.body = body
	encoded.ContentLength = int64(len(body))
	return nil
}

func encodeMultipart(req *Request, encoded *EncodedRequest, o *encodeOptions) error {
	u, err := parseTarget(req)
	if err != nil {
		return err
	}

	builder := multipart.NewBuilder(o.multipartOptions...)
	for _, p := range req.Params {
		builder.AppendData([]byte(p.Value.Text()), p.Key)
	}
	for _, f := range req.Files {
		appendFile(builder, f)
	}
	if err := builder.Err(); err != nil {
		return constructionError("multipart", fmt.Errorf("%w: %w", ErrInvalidFile, err))
	}

	encoded.URL = u
	encoded.Encoding = MultipartEncoding
	encoded.Header.Set("Content-Type", builder.ContentType())

	if o.streamMultipart {
		encoded.bodyReader = newStreamBody(builder)
		encoded.ContentLength = int64(builder.EncodedLength())
		return nil
	}

	body, err := builder.Encode()
	if err != nil {
		return constructionError("multipart", fmt.Errorf("%w: %w", ErrBodyEncoding, err))
	}
	encoded.body = body
	encoded.ContentLength = int64(len(body))
	return nil
}

func appendFile(b *multipart.Builder, f FileEntry) {
	if f.Data == nil {
		b.AppendFileWithName(f.Path, f.Key, f.FileName, f.MimeType)
		return
	}

	switch {
	case f.FileName != "":
		mimeType := f.MimeType
		if mimeType == "" {
			mimeType = multipart.MimeType(f.FileName)
		}
		b.AppendDataWithFile(f.Data, f.Key, f.FileName, mimeType)
	case f.MimeType != "":
		b.AppendDataWithMime(f.Data, f.Key, f.MimeType)
	default:
		b.AppendData(f.Data, f.Key)
	}
}

// streamBody writes the multipart body into a pipe on first read
type streamBody struct {
	builder *multipart.Builder
	once    sync.Once
	pr      *io.PipeReader
	pw      *io.PipeWriter
}

func newStreamBody(b *multipart.Builder) *streamBody {
	pr, pw := io.Pipe()
	return &streamBody{builder: b, pr: pr, pw: pw}
}

func (s *streamBody) Read(p []byte) (int, error) {
	s.once.Do(func() {
		go func() {
			_, err := s.builder.WriteTo(s.pw)
			if err != nil {
				err = fmt.Errorf("%w: %w", ErrBodyEncoding, err)
			}
			s.pw.CloseWithError(err)
		}()
	})
	return s.pr.Read(p)
}

func (s *streamBody) Close() error {
	return s.pr.Close()
}
