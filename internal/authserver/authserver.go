// Package authserver answers requests directly from an in-memory zone,
// returning either a terminal answer or an NS referral. It plays the
// role the teacher's QueryHandler plays for the resolver chain, but
// for a single zone with no upstream: there is nothing to time out or
// forward, only a zone lookup and a response to build.
package authserver

import (
	"github.com/fu-berlin/dnslab/internal/audit"
	"github.com/fu-berlin/dnslab/internal/dnsmsg"
	"github.com/fu-berlin/dnslab/internal/logging"
	"github.com/fu-berlin/dnslab/internal/zone"
)

// Server answers requests against a single Zone.
type Server struct {
	Zone   *zone.Zone
	Logger *logging.Logger

	// Audit, if set, receives one record per answered request, keyed
	// by ServerKey (typically this instance's bound IP).
	Audit     *audit.Log
	ServerKey string
}

// Handle decodes requestBytes, matches the requested name against the
// zone by longest suffix, and builds the encoded response. A malformed
// request yields an empty NXDOMAIN response rather than an error: the
// caller never sees a parse failure as anything but a negative answer.
//
// The query type is not consulted when matching; only the longest
// matching record name decides the answer, and that record's own type
// decides whether the response is a referral (NS) or terminal (A, or
// anything else).
func (s *Server) Handle(requestBytes []byte) []byte {
	req, err := dnsmsg.Parse(requestBytes)
	if err != nil {
		resp := dnsmsg.NewResponse(nil)
		resp.SetEmptyResp(true)
		return resp.Build()
	}

	name := req.RequestedName()
	rec, ok := s.Zone.Match(name)
	resp := dnsmsg.NewResponse(nil)
	if !ok {
		resp.SetEmptyResp(true)
		s.record(name, resp)
		return resp.Build()
	}

	if rec.Type == "NS" {
		ns := rec.Name
		resp.SetResp(rec.Value, 1, true, true, rec.TTLSecs, &ns)
		s.record(name, resp)
		return resp.Build()
	}

	resp.SetResp(rec.Value, 1, true, true, rec.TTLSecs, nil)
	s.record(name, resp)
	return resp.Build()
}

// record persists one answered request to Audit, if configured. A
// write failure only gets logged, never returned: audit logging must
// never affect the answer a caller receives.
func (s *Server) record(name string, resp dnsmsg.Message) {
	if s.Audit == nil {
		return
	}
	if err := s.Audit.Record(s.ServerKey, name, resp.RCodeValue()); err != nil && s.Logger != nil {
		s.Logger.Warn("authserver: audit record failed", "err", err)
	}
}
