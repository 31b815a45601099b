// Package builtin provides the functions available inside {{...}}
// placeholders in request descriptors.
//
// Available functions:
//   - uuid(): random UUID v4
//   - now(): current UTC time in RFC 3339
//   - date(layout): current UTC date, layout defaults to 2006-01-02
//   - timestamp(), timestampMs(): Unix time in seconds or milliseconds
//   - random(min, max): random integer in [min, max]
//   - randomString(length): random alphanumeric string
//   - base64(value), base64Decode(value)
//   - sha256(value): hex digest
//   - urlEncode(value): percent-encoding as used for query strings
package builtin
