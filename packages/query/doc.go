// Package query builds percent-encoded query strings from request parameters.
//
// Top-level keys are sorted in ascending byte order before encoding. Nested
// objects produce keys of the form parent[child] and arrays repeat parent[]
// once per element. Booleans encode as 1 and 0.
//
// Escaping is stricter than url.QueryEscape: only unreserved characters plus
// "/" and "?" are left as-is, so delimiters such as ":#[]@!$&'()*+,;=" in keys
// or values can never collide with query syntax.
package query
