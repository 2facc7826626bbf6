package zone

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fu-berlin/dnslab/internal/helpers"
)

const (
	defaultClass = "IN"
	defaultType  = "NS"
	defaultTTL   = 300
)

// Record is a single resource record: name, value, class, type and TTL.
// Two records may share a name only at load time, where the later one
// wins (see LoadFile).
type Record struct {
	Name    string
	Value   string
	Class   string
	Type    string
	TTLSecs int
}

// tokenize splits a zone-file line on whitespace and tabs, preserving
// double-quoted segments as single tokens (including any internal
// whitespace), and discards empty tokens. Tabs are treated exactly like
// spaces: both are field separators.
func tokenize(line string) []string {
	var tokens []string
	var cur strings.Builder
	inQuotes := false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case !inQuotes && (r == ' ' || r == '\t'):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return tokens
}

func isPureNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// ParseLine parses one whitespace-delimited zone-file line into a Record.
// The token-assignment rule: first token is the name, last is the value, the first purely-numeric
// token strictly between them is the TTL, and of whatever remains (order
// preserved) the first is the class and the last is the type, with
// class/type each defaulting independently when absent.
func ParseLine(line string) (Record, error) {
	tokens := tokenize(line)
	if len(tokens) < 2 {
		return Record{}, fmt.Errorf("%w: %q", ErrFormat, line)
	}

	name := tokens[0]
	value := tokens[len(tokens)-1]
	middle := tokens[1 : len(tokens)-1]

	ttl := defaultTTL
	rest := make([]string, 0, len(middle))
	ttlFound := false
	for _, tok := range middle {
		if !ttlFound && isPureNumeric(tok) {
			n, err := strconv.Atoi(tok)
			if err != nil {
				return Record{}, fmt.Errorf("%w: %q", ErrFormat, line)
			}
			// Zone files are hand-edited; a TTL typo with too many
			// digits shouldn't overflow into a negative number once
			// it eventually crosses the wire, so clamp it the same
			// way every other numeric field from untrusted input does.
			ttl = int(helpers.ClampIntToUint32(n))
			ttlFound = true
			continue
		}
		rest = append(rest, tok)
	}

	class := defaultClass
	rrType := defaultType
	switch len(rest) {
	case 0:
		// both stay at their defaults
	case 1:
		rrType = rest[0]
	default:
		class = rest[0]
		rrType = rest[len(rest)-1]
	}

	return Record{
		Name:    name,
		Value:   value,
		Class:   class,
		Type:    rrType,
		TTLSecs: ttl,
	}, nil
}
