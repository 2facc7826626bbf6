package dnsmsg

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Message is the attribute bag carried over the wire for both requests and
// responses. Every field is optional; an unset field marshals as JSON null
// rather than being omitted, so a receiver can distinguish "not set" from
// "zero value" (grounded on the original's DEFAULT_SETTINGS dict, which
// always carries every recognized key).
//
// Fields are pointers so the zero value of the Go type (nil) round-trips
// as JSON null.
type Message struct {
	QryName       *string `json:"dns.qry.name"`
	QryType       *int    `json:"dns.qry.type"`
	RecDesired    *bool   `json:"dns.flags.recdesired"`
	Response      *bool   `json:"dns.flags.response"`
	Authoritative *bool   `json:"dns.flags.authoritative"`
	RCode         *int    `json:"dns.flags.rcode"`
	A             *string `json:"dns.a"`
	NS            *string `json:"dns.ns"`
	CountAnswers  *int    `json:"dns.count.answers"`
	RespTTL       *int    `json:"dns.resp.ttl"`
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

// NewRequest constructs a request Message. If fields is non-nil, it is used
// as the starting point and request defaults (recdesired=false,
// qry.name="root", qry.type=NS) are applied only to fields left unset —
// a caller's non-null values are never overwritten.
func NewRequest(fields *Message) Message {
	var m Message
	if fields != nil {
		m = *fields
	}
	if m.RecDesired == nil {
		m.RecDesired = boolPtr(false)
	}
	if m.QryName == nil {
		m.QryName = strPtr("root")
	}
	if m.QryType == nil {
		m.QryType = intPtr(int(TypeNS))
	}
	return m
}

// NewResponse constructs a response Message with response defaults applied
// only to fields left unset: a="", count.answers=0, authoritative=true,
// rcode=NXDOMAIN, response=false, ns=null, ttl=0.
func NewResponse(fields *Message) Message {
	var m Message
	if fields != nil {
		m = *fields
	}
	if m.A == nil {
		m.A = strPtr("")
	}
	if m.CountAnswers == nil {
		m.CountAnswers = intPtr(0)
	}
	if m.Authoritative == nil {
		m.Authoritative = boolPtr(true)
	}
	if m.RCode == nil {
		m.RCode = intPtr(int(RCodeNXDomain))
	}
	if m.Response == nil {
		m.Response = boolPtr(false)
	}
	if m.RespTTL == nil {
		m.RespTTL = intPtr(0)
	}
	return m
}

// SetReq sets the request fields of m: the queried name, and the query
// type derived from asNSRecord (false -> A, true -> NS). recursionDesired,
// if non-nil, overwrites the recdesired flag; a nil value leaves it
// untouched.
func (m *Message) SetReq(name string, asNSRecord bool, recursionDesired *bool) {
	m.QryName = strPtr(name)
	qtype := int(TypeA)
	if asNSRecord {
		qtype = int(TypeNS)
	}
	m.QryType = intPtr(qtype)
	if recursionDesired != nil {
		m.RecDesired = boolPtr(*recursionDesired)
	}
}

// SetResp populates the response fields of m. If positiveRcode is true,
// rcode is set to NOERROR; otherwise rcode is left as-is.
func (m *Message) SetResp(address string, answers int, authoritative bool, positiveRcode bool, ttl int, ns *string) {
	m.A = strPtr(address)
	m.CountAnswers = intPtr(answers)
	m.Authoritative = boolPtr(authoritative)
	m.Response = boolPtr(true)
	m.RespTTL = intPtr(ttl)
	m.NS = ns
	if positiveRcode {
		m.RCode = intPtr(int(RCodeNoError))
	}
}

// SetEmptyResp sets an empty/negative response: no answers, no address,
// rcode left at whatever it already was (NXDOMAIN by NewResponse's default).
func (m *Message) SetEmptyResp(authoritative bool) {
	m.SetResp("", 0, authoritative, false, 0, nil)
}

// Build deterministically encodes m as a JSON attribute bag. Null fields
// are preserved.
func (m Message) Build() []byte {
	b, err := json.Marshal(m)
	if err != nil {
		// Message contains only JSON-marshalable field types; this cannot fail.
		panic(fmt.Sprintf("dnsmsg: marshal: %v", err))
	}
	return b
}

// Parse is the inverse of Build. A field outside the recognized set fails
// with ErrFormat, matching the original's strict dict-key access.
func Parse(data []byte) (Message, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var m Message
	if err := dec.Decode(&m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return m, nil
}

// RequestedName returns the "dns.qry.name" value, or "" if unset.
func (m Message) RequestedName() string {
	if m.QryName == nil {
		return ""
	}
	return *m.QryName
}

// RequestedType returns the "dns.qry.type" value, or 0 if unset.
func (m Message) RequestedType() int {
	if m.QryType == nil {
		return 0
	}
	return *m.QryType
}

// IsARequest reports whether the requested type is A.
func (m Message) IsARequest() bool {
	return m.RequestedType() == int(TypeA)
}

// IsRecursionDesired reports the "dns.flags.recdesired" value.
func (m Message) IsRecursionDesired() bool {
	return m.RecDesired != nil && *m.RecDesired
}

// Address returns the "dns.a" value, or "" if unset.
func (m Message) Address() string {
	if m.A == nil {
		return ""
	}
	return *m.A
}

// NSName returns the "dns.ns" value, which may be nil.
func (m Message) NSName() *string {
	return m.NS
}

// TTL returns the "dns.resp.ttl" value, or 0 if unset.
func (m Message) TTL() int {
	if m.RespTTL == nil {
		return 0
	}
	return *m.RespTTL
}

// RCodeValue returns the "dns.flags.rcode" value, or RCodeServFail if
// unset — a reply with no rcode at all is treated the same as a
// failure rather than trusted as RCodeNoError.
func (m Message) RCodeValue() int {
	if m.RCode == nil {
		return int(RCodeServFail)
	}
	return *m.RCode
}

// SetAuthoritative sets the "dns.flags.authoritative" field.
func (m *Message) SetAuthoritative(v bool) {
	m.Authoritative = boolPtr(v)
}

// SetUpdatedTTL overwrites the "dns.resp.ttl" field, used by the cache to
// surface the remaining TTL rather than the originally received one.
func (m *Message) SetUpdatedTTL(seconds int) {
	m.RespTTL = intPtr(seconds)
}

// MatchType reports whether the requested type equals the named type
// ("A" or "NS").
func (m Message) MatchType(typeName string) bool {
	switch typeName {
	case "A":
		return m.RequestedType() == int(TypeA)
	case "NS":
		return m.RequestedType() == int(TypeNS)
	default:
		return false
	}
}

// Clone returns a deep copy of m, so callers (notably the cache) can hand
// out independent Messages instead of sharing mutable state.
func (m Message) Clone() Message {
	out := m
	if m.QryName != nil {
		out.QryName = strPtr(*m.QryName)
	}
	if m.QryType != nil {
		out.QryType = intPtr(*m.QryType)
	}
	if m.RecDesired != nil {
		out.RecDesired = boolPtr(*m.RecDesired)
	}
	if m.Response != nil {
		out.Response = boolPtr(*m.Response)
	}
	if m.Authoritative != nil {
		out.Authoritative = boolPtr(*m.Authoritative)
	}
	if m.RCode != nil {
		out.RCode = intPtr(*m.RCode)
	}
	if m.A != nil {
		out.A = strPtr(*m.A)
	}
	if m.NS != nil {
		out.NS = strPtr(*m.NS)
	}
	if m.CountAnswers != nil {
		out.CountAnswers = intPtr(*m.CountAnswers)
	}
	if m.RespTTL != nil {
		out.RespTTL = intPtr(*m.RespTTL)
	}
	return out
}
