// Package cliargs extracts a bound IP and port from a server binary's
// command-line arguments, in any order, grounded on the original's
// ArgumentExtractor/ConnectionArgumentExtractor pair.
package cliargs

import (
	"regexp"

	"github.com/fu-berlin/dnslab/internal/helpers"
)

const defaultPort = 53

var (
	ipPattern   = regexp.MustCompile(`^(\d{1,3}\.){3}\d{1,3}$`)
	portPattern = regexp.MustCompile(`^\d{1,5}$`)
)

// Binding is the extracted IP/port pair a server should listen on.
type Binding struct {
	IP   string
	Port int
}

// Extract scans args for the first token matching the IP pattern and
// the last token matching the port pattern, in either order. A missing
// IP leaves Binding.IP empty; a missing port yields the default, 53.
func Extract(args []string) Binding {
	b := Binding{Port: defaultPort}
	haveIP := false
	for _, arg := range args {
		if !haveIP && ipPattern.MatchString(arg) {
			b.IP = arg
			haveIP = true
			continue
		}
		if portPattern.MatchString(arg) {
			// portPattern allows up to 5 digits, which admits values
			// above the valid port range (e.g. "99999"); clamp to
			// what a uint16 port can actually hold.
			b.Port = int(helpers.ClampIntToUint16(atoi(arg)))
		}
	}
	return b
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}
