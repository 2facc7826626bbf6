// Package dnsmsg implements the educational DNS ecosystem's wire message:
// a JSON attribute bag used for both queries and responses, in place of
// RFC 1035 binary encoding.
package dnsmsg

import "errors"

// ErrFormat is the sentinel error for an unparseable message: either the
// bytes are not valid JSON, or they contain a field outside the recognized
// set (see Message's json tags). Wrap with fmt.Errorf("...: %w", ErrFormat)
// to add context.
var ErrFormat = errors.New("dnsmsg: malformed message")
