// Package zone implements in-memory resource records, zone-file loading,
// and longest-suffix record matching for the authoritative DNS server.
package zone

import "errors"

// ErrFormat is returned when a zone-file line cannot be parsed into a
// ResourceRecord: fewer than two non-empty tokens on the line.
var ErrFormat = errors.New("zone: malformed record line")
