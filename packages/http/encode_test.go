package http

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/servicecall/packages/core/value"
	"github.com/abdul-hamid-achik/servicecall/packages/multipart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_GETQuery(t *testing.T) {
	req := NewRequest(MethodGet, "http://h/p").
		AddParam("b", value.String("x")).
		AddParam("a", value.Int(1))

	encoded, err := Encode(req)
	require.NoError(t, err)

	assert.Equal(t, "http://h/p?a=1&b=x", encoded.URL.String())
	assert.Equal(t, URLEncoding, encoded.Encoding)
	assert.Nil(t, encoded.Body())
	assert.Nil(t, encoded.NewBody())
	assert.Empty(t, encoded.Header.Get("Content-Type"))
}

func TestEncode_DELETEIgnoresFiles(t *testing.T) {
	req := NewRequest(MethodDelete, "http://h/items").
		AddParam("id", value.Int(7)).
		AddFilePath("f", "/does/not/matter")

	encoded, err := Encode(req)
	require.NoError(t, err)
	assert.Equal(t, "http://h/items?id=7", encoded.URL.String())
	assert.Equal(t, URLEncoding, encoded.Encoding)
}

func TestEncode_GETAppendsToExistingQuery(t *testing.T) {
	req := NewRequest(MethodGet, "http://h/p?z=9").AddParam("a", value.Bool(true))

	encoded, err := Encode(req)
	require.NoError(t, err)
	assert.Equal(t, "http://h/p?z=9&a=1", encoded.URL.String())
}

func TestEncode_POSTJSON(t *testing.T) {
	req := NewRequest(MethodPost, "https://api.example.com/users").
		AddHeader("X-Trace", "1").
		AddParam("name", value.String("Utsav")).
		AddParam("tags", value.Array(value.String("a"), value.String("b"))).
		AddParam("meta", value.Object(value.Member{Key: "k", Value: value.Null()}))

	encoded, err := Encode(req)
	require.NoError(t, err)

	assert.Equal(t, JSONEncoding, encoded.Encoding)
	assert.Equal(t, "application/json", encoded.Header.Get("Content-Type"))
	assert.Equal(t, "1", encoded.Header.Get("X-Trace"))
	assert.JSONEq(t, `{"name":"Utsav","tags":["a","b"],"meta":{"k":null}}`, string(encoded.Body()))
	assert.Equal(t, int64(len(encoded.Body())), encoded.ContentLength)
	assert.Equal(t, "https://api.example.com/users", encoded.URL.String())
}

func TestEncode_POSTWithoutParamsSendsEmptyObject(t *testing.T) {
	encoded, err := Encode(NewRequest(MethodPut, "http://h/"))
	require.NoError(t, err)
	assert.Equal(t, "{}", string(encoded.Body()))
}

func TestEncode_JSONDuplicateKeyKeepsLastValue(t *testing.T) {
	req := NewRequest(MethodPost, "http://h/").
		AddParam("a", value.Int(1)).
		AddParam("b", value.Int(2)).
		AddParam("a", value.Int(3))

	encoded, err := Encode(req)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, string(encoded.Body()))
}

func TestEncode_Multipart(t *testing.T) {
	req := NewRequest(MethodPost, "http://h/upload").
		AddParam("name", value.String("Utsav")).
		AddFileData("doc", []byte("hello"), "text/plain", "a.txt")

	encoded, err := Encode(req, WithMultipartOptions(multipart.WithBoundary("b")))
	require.NoError(t, err)

	assert.Equal(t, MultipartEncoding, encoded.Encoding)
	assert.Equal(t, "multipart/form-data; boundary=b", encoded.Header.Get("Content-Type"))

	expected := "--b\r\n" +
		"Content-Disposition: form-data; name=\"name\"\r\n\r\n" +
		"Utsav" +
		"\r\n--b\r\n" +
		"Content-Disposition: form-data; name=\"doc\"; filename=\"a.txt\"\r\n" +
		"Content-Type: text/plain\r\n\r\n" +
		"hello" +
		"\r\n--b--\r\n"
	assert.Equal(t, expected, string(encoded.Body()))
	assert.Equal(t, int64(len(expected)), encoded.ContentLength)
}

func TestEncode_MultipartRandomBoundary(t *testing.T) {
	req := NewRequest(MethodPost, "http://h/upload").AddFileData("f", []byte("x"), "", "")

	encoded, err := Encode(req)
	require.NoError(t, err)

	ct := encoded.Header.Get("Content-Type")
	require.True(t, strings.HasPrefix(ct, "multipart/form-data; boundary="))
	boundary := strings.TrimPrefix(ct, "multipart/form-data; boundary=")

	body := string(encoded.Body())
	assert.True(t, strings.HasPrefix(body, "--"+boundary+"\r\n"))
	assert.True(t, strings.HasSuffix(body, "\r\n--"+boundary+"--\r\n"))
}

func TestEncode_MultipartStreaming(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"x":1}`), 0644))

	req := NewRequest(MethodPost, "http://h/upload").AddFilePath("f", path)
	opts := []EncodeOption{WithMultipartOptions(multipart.WithBoundary("b"))}

	buffered, err := Encode(req, opts...)
	require.NoError(t, err)

	streamed, err := Encode(req, append(opts, WithStreamingMultipart())...)
	require.NoError(t, err)
	defer streamed.Close()

	assert.True(t, streamed.Streaming())
	assert.Nil(t, streamed.Body())

	data, err := io.ReadAll(streamed.NewBody())
	require.NoError(t, err)
	assert.Equal(t, string(buffered.Body()), string(data))
	assert.Equal(t, int64(len(data)), streamed.ContentLength)
	assert.Contains(t, string(data), "Content-Type: application/json")
}

func TestEncode_MissingFile(t *testing.T) {
	req := NewRequest(MethodPost, "http://h/upload").
		AddFilePath("f", filepath.Join(t.TempDir(), "missing.txt"))

	encoded, err := Encode(req)
	require.Error(t, err)
	assert.Nil(t, encoded)
	assert.True(t, IsConstructionError(err))
	assert.True(t, errors.Is(err, ErrInvalidFile))
	assert.True(t, errors.Is(err, multipart.ErrFileNotReachable))
}

func TestEncode_DirectoryUpload(t *testing.T) {
	req := NewRequest(MethodPost, "http://h/upload").AddFilePath("f", t.TempDir())

	_, err := Encode(req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, multipart.ErrIsDirectory))
}

func TestEncode_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  *Request
		want error
	}{
		{"empty url", NewRequest(MethodGet, ""), ErrInvalidURL},
		{"bad scheme", NewRequest(MethodGet, "ftp://h/"), ErrInvalidURL},
		{"no host", NewRequest(MethodGet, "http:///path"), ErrInvalidURL},
		{"bad method", NewRequest(Method("PATCH"), "http://h/"), ErrInvalidMethod},
		{"file without source", NewRequest(MethodPost, "http://h/").AddFile(FileEntry{Key: "f"}), ErrInvalidFile},
		{"file with both sources", NewRequest(MethodPost, "http://h/").AddFile(FileEntry{Key: "f", Path: "/a", Data: []byte("x")}), ErrInvalidFile},
		{"file without key", NewRequest(MethodPost, "http://h/").AddFileData("", []byte("x"), "", ""), ErrInvalidFile},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var ce *ConstructionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, "validate", ce.Op)
		})
	}
}

func TestEncode_NegativeTimeout(t *testing.T) {
	_, err := Encode(NewRequest(MethodGet, "http://h/").SetTimeout(-time.Second))
	assert.True(t, IsConstructionError(err))
}

func TestEncode_NilRequest(t *testing.T) {
	_, err := Encode(nil)
	assert.True(t, IsConstructionError(err))
}

func TestEncodedRequest_HTTPRequest(t *testing.T) {
	req := NewRequest(MethodPost, "http://h/p").
		AddHeader("Accept", "application/json").
		AddParam("a", value.Int(1))

	encoded, err := Encode(req)
	require.NoError(t, err)

	httpReq, err := encoded.HTTPRequest(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "POST", httpReq.Method)
	assert.Equal(t, "application/json", httpReq.Header.Get("Accept"))
	assert.Equal(t, int64(7), httpReq.ContentLength)
	require.NotNil(t, httpReq.GetBody)

	body, err := httpReq.GetBody()
	require.NoError(t, err)
	data, _ := io.ReadAll(body)
	assert.Equal(t, `{"a":1}`, string(data))

	// the encoded header must not be shared with the outgoing request
	httpReq.Header.Set("Accept", "text/plain")
	assert.Equal(t, "application/json", encoded.Header.Get("Accept"))
}

func TestParseMethod(t *testing.T) {
	m, err := ParseMethod(" post ")
	require.NoError(t, err)
	assert.Equal(t, MethodPost, m)
	assert.True(t, m.HasBody())
	assert.False(t, MethodDelete.HasBody())

	_, err = ParseMethod("PATCH")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}

func TestRequest_SetHeader(t *testing.T) {
	req := NewRequest(MethodGet, "http://h/").
		AddHeader("X-A", "1").
		AddHeader("x-a", "2").
		AddHeader("X-B", "3").
		SetHeader("X-A", "9")

	assert.Equal(t, []Header{{Name: "X-A", Value: "9"}, {Name: "X-B", Value: "3"}}, req.Headers)
	assert.Equal(t, "3", req.Header("x-b"))
	assert.Equal(t, DefaultRequestTimeout, req.Timeout)
}

func TestRequest_SetParam(t *testing.T) {
	req := NewRequest(MethodPost, "http://h/").
		AddParam("a", value.Int(1)).
		AddParam("b", value.Int(2)).
		AddParam("a", value.Int(3)).
		SetParam("a", value.String("x"))

	assert.Equal(t, []Param{
		{Key: "b", Value: value.Int(2)},
		{Key: "a", Value: value.String("x")},
	}, req.Params)
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid http", "http://example.com", false},
		{"valid https", "https://example.com/path", false},
		{"valid with port", "http://localhost:8080", false},
		{"empty", "", true},
		{"ftp scheme", "ftp://example.com", true},
		{"file scheme", "file:///etc/passwd", true},
		{"no host", "http://", true},
		{"invalid format", "://invalid", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
