// Package multipart assembles multipart/form-data request bodies.
//
// A Builder collects named parts in append order: in-memory bytes, files
// read from disk, or raw streams with a known length. Encode frames them with
// a per-builder random boundary using CRLF line endings, the format expected
// by common server-side multipart parsers:
//
//	--boundary\r\n
//	Content-Disposition: form-data; name="field"\r\n
//	\r\n
//	value
//	\r\n--boundary\r\n
//	...
//	\r\n--boundary--\r\n
//
// Part contents are copied in bounded chunks, so WriteTo keeps memory use
// independent of file size.
//
// File appends are validated up front. The first failure is remembered and
// reported by Encode; later appends are accepted but cannot clear it.
package multipart
