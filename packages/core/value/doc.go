// Package value provides the JSON-like value type used for request parameters.
//
// A Value is a closed tagged union over the JSON kinds:
//   - Null
//   - Bool
//   - Number (kept as its literal text, so 1 stays "1" and 2.2 stays "2.2")
//   - String
//   - Array
//   - Object (members keep insertion order)
//
// Encoders switch on Kind rather than inspecting Go runtime types.
package value
