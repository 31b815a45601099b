// Package env resolves {{...}} placeholders in request descriptors.
//
// A placeholder is one of:
//   - {{name}}: a variable from --var flags, .env files or the environment
//   - {{$NAME}}: an OS environment variable
//   - {{fn(args)}}: a builtin function such as uuid() or timestamp()
package env
