package multipart

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
)

const (
	// DefaultBufferSize is the chunk size used when copying part contents
	DefaultBufferSize = 1024
	// DefaultMimeType is used when a file extension maps to no known type
	DefaultMimeType = "application/octet-stream"

	crlf = "\r\n"
)

// Header is a single part header line
type Header struct {
	Name  string
	Value string
}

type part struct {
	headers []Header
	length  uint64
	open    func() (io.ReadCloser, error)

	initial bool
	final   bool
}

// Builder accumulates body parts and encodes them as multipart/form-data
type Builder struct {
	boundary   string
	fs         FileSystem
	bufferSize int
	parts      []*part
	err        error
}

type Option func(*Builder)

// WithFileSystem replaces the file access used by AppendFile
func WithFileSystem(fs FileSystem) Option {
	return func(b *Builder) {
		b.fs = fs
	}
}

// WithBufferSize sets the chunk size used when reading part contents
func WithBufferSize(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// WithBoundary fixes the boundary instead of generating a random one
func WithBoundary(boundary string) Option {
	return func(b *Builder) {
		if boundary != "" {
			b.boundary = boundary
		}
	}
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		boundary:   RandomBoundary(),
		fs:         OSFileSystem{},
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// RandomBoundary returns a boundary token built from two random 32-bit values
func RandomBoundary() string {
	return fmt.Sprintf("servicecall.boundary.%08x%08x", rand.Uint32(), rand.Uint32())
}

func (b *Builder) Boundary() string {
	return b.boundary
}

// ContentType returns the Content-Type header value for the encoded body
func (b *Builder) ContentType() string {
	return "multipart/form-data; boundary=" + b.boundary
}

// ContentLength returns the sum of the declared part lengths. Boundary and
// header framing are not included.
func (b *Builder) ContentLength() uint64 {
	var total uint64
	for _, p := range b.parts {
		total += p.length
	}
	return total
}

// EncodedLength returns the exact size of the encoded body, framing
// included, assuming every part yields its declared length.
func (b *Builder) EncodedLength() uint64 {
	if len(b.parts) == 0 {
		return 0
	}
	var total uint64
	for i, p := range b.parts {
		if i == 0 {
			total += uint64(len("--" + b.boundary + crlf))
		} else {
			total += uint64(len(crlf + "--" + b.boundary + crlf))
		}
		for _, h := range p.headers {
			total += uint64(len(h.Name + ": " + h.Value + crlf))
		}
		total += uint64(len(crlf)) + p.length
	}
	total += uint64(len(crlf + "--" + b.boundary + "--" + crlf))
	return total
}

// Len returns the number of appended parts
func (b *Builder) Len() int {
	return len(b.parts)
}

// Err returns the first error recorded while appending parts
func (b *Builder) Err() error {
	return b.err
}

// AppendData appends data as a plain form field
func (b *Builder) AppendData(data []byte, name string) {
	b.appendBytes(data, contentHeaders(name, "", ""))
}

// AppendDataWithMime appends data with an explicit Content-Type
func (b *Builder) AppendDataWithMime(data []byte, name, mimeType string) {
	b.appendBytes(data, contentHeaders(name, "", mimeType))
}

// AppendDataWithFile appends data as a file upload with the given filename
// and Content-Type
func (b *Builder) AppendDataWithFile(data []byte, name, fileName, mimeType string) {
	b.appendBytes(data, contentHeaders(name, fileName, mimeType))
}

func (b *Builder) appendBytes(data []byte, headers []Header) {
	cp := make([]byte, len(data))
	copy(cp, data)
	b.parts = append(b.parts, &part{
		headers: headers,
		length:  uint64(len(cp)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(cp)), nil
		},
	})
}

// AppendFile appends the file at path, which may be a local path or a
// file:// URL. The filename is the base name of the path and the MIME type is
// derived from its extension.
func (b *Builder) AppendFile(path, name string) {
	b.AppendFileWithName(path, name, "", "")
}

// AppendFileWithName appends the file at path. An empty fileName or mimeType
// is derived from the path.
func (b *Builder) AppendFileWithName(path, name, fileName, mimeType string) {
	local, err := localPath(path)
	if err != nil {
		b.setError(err)
		return
	}

	if fileName == "" {
		fileName = filepath.Base(local)
		if fileName == "." || fileName == string(filepath.Separator) || fileName == "" {
			b.setError(fmt.Errorf("%w: %s", ErrInvalidFilename, path))
			return
		}
	}
	if mimeType == "" {
		mimeType = MimeType(fileName)
	}

	if !b.fs.Exists(local) {
		b.setError(fmt.Errorf("%w: %s", ErrFileNotReachable, local))
		return
	}

	if b.fs.IsDir(local) {
		b.setError(fmt.Errorf("%w: %s", ErrIsDirectory, local))
		return
	}

	size, err := b.fs.Size(local)
	if err != nil {
		b.setError(fmt.Errorf("%w: %s: %v", ErrFileSize, local, err))
		return
	}

	probe, err := b.fs.Open(local)
	if err != nil {
		b.setError(fmt.Errorf("%w: %s: %v", ErrStreamOpen, local, err))
		return
	}
	_ = probe.Close()

	fs := b.fs
	b.parts = append(b.parts, &part{
		headers: contentHeaders(name, fileName, mimeType),
		length:  size,
		open: func() (io.ReadCloser, error) {
			return fs.Open(local)
		},
	})
}

// AppendStream appends a part read from r. length is the declared size of
// the content and only feeds ContentLength.
func (b *Builder) AppendStream(r io.Reader, length uint64, headers []Header) {
	used := false
	cp := make([]Header, len(headers))
	copy(cp, headers)
	b.parts = append(b.parts, &part{
		headers: cp,
		length:  length,
		open: func() (io.ReadCloser, error) {
			if used {
				return nil, errors.New("stream already consumed")
			}
			used = true
			return io.NopCloser(r), nil
		},
	})
}

func (b *Builder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Encode returns the complete multipart body. No parts produce an empty body.
// Any append or read error is returned and no partial body is kept.
func (b *Builder) Encode() ([]byte, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.parts) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	if _, err := b.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo streams the encoded body to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	if len(b.parts) == 0 {
		return 0, nil
	}

	for _, p := range b.parts {
		p.initial = false
		p.final = false
	}
	b.parts[0].initial = true
	b.parts[len(b.parts)-1].final = true

	cw := &countingWriter{w: w}
	chunk := make([]byte, b.bufferSize)
	for _, p := range b.parts {
		if err := b.writePart(cw, p, chunk); err != nil {
			return cw.n, err
		}
	}
	return cw.n, nil
}

func (b *Builder) writePart(w io.Writer, p *part, chunk []byte) error {
	var head strings.Builder
	if p.initial {
		head.WriteString("--" + b.boundary + crlf)
	} else {
		head.WriteString(crlf + "--" + b.boundary + crlf)
	}
	for _, h := range p.headers {
		head.WriteString(h.Name + ": " + h.Value + crlf)
	}
	head.WriteString(crlf)
	if _, err := io.WriteString(w, head.String()); err != nil {
		return fmt.Errorf("writing multipart body: %w", err)
	}

	if err := copyBody(w, p, chunk); err != nil {
		return err
	}

	if p.final {
		if _, err := io.WriteString(w, crlf+"--"+b.boundary+"--"+crlf); err != nil {
			return fmt.Errorf("writing multipart body: %w", err)
		}
	}
	return nil
}

func copyBody(w io.Writer, p *part, chunk []byte) error {
	r, err := p.open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStreamRead, err)
	}
	defer r.Close()

	for {
		n, readErr := r.Read(chunk)
		if n > 0 {
			if _, err := w.Write(chunk[:n]); err != nil {
				return fmt.Errorf("writing multipart body: %w", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("%w: %v", ErrStreamRead, readErr)
		}
	}
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// MimeType returns the MIME type for the extension of fileName, falling back
// to application/octet-stream. Parameters such as charset are dropped.
func MimeType(fileName string) string {
	ext := filepath.Ext(fileName)
	if ext == "" {
		return DefaultMimeType
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return DefaultMimeType
	}
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}
	return t
}

func localPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("%w: empty path", ErrInvalidFileURL)
	}
	if !strings.Contains(path, "://") {
		return path, nil
	}
	u, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileURL, path)
	}
	if u.Scheme != "file" || u.Path == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileURL, path)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("%w: %s", ErrInvalidFileURL, path)
	}
	return filepath.FromSlash(u.Path), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func contentHeaders(name, fileName, mimeType string) []Header {
	disposition := fmt.Sprintf(`form-data; name="%s"`, quoteEscaper.Replace(name))
	if fileName != "" {
		disposition += fmt.Sprintf(`; filename="%s"`, quoteEscaper.Replace(fileName))
	}
	headers := []Header{{Name: "Content-Disposition", Value: disposition}}
	if mimeType != "" {
		headers = append(headers, Header{Name: "Content-Type", Value: mimeType})
	}
	return headers
}
