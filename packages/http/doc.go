// Package http describes, encodes and sends servicecall requests.
//
// It provides:
//   - Request: the caller's description of a request (method, URL, ordered
//     headers, parameters, files, timeout) with validation
//   - Encode: turns a Request into a transport-ready EncodedRequest, choosing
//     a query string (GET, DELETE), a JSON body (POST, PUT) or a
//     multipart/form-data body (POST, PUT with files)
//   - Client: a Transport on top of net/http with configurable timeouts,
//     redirects, TLS verification and proxy
//   - Response: the fully buffered response
//
// Every construction failure is a *ConstructionError and is reported before
// any connection is attempted.
package http
