// Package resolver implements the recursive resolver: it chases NS
// referrals from a configured root server, consults a cache before
// going out to the network, and always clears the authoritative bit
// on its way out. Grounded on recursive_resolver.py, generalized the
// way the teacher's resolvers.Chained generalizes a resolver chain,
// but there is exactly one upstream model here (iterative referral
// chasing), not a pluggable chain of strategies.
package resolver

import (
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/fu-berlin/dnslab/internal/audit"
	"github.com/fu-berlin/dnslab/internal/cache"
	"github.com/fu-berlin/dnslab/internal/dnsmsg"
	"github.com/fu-berlin/dnslab/internal/logging"
)

// auditServerKey identifies the resolver's own instance in audit
// records, distinct from any authoritative server's bound IP.
const auditServerKey = "resolver"

// MaxHops bounds referral chasing. The original implementation has no
// such bound and can spin forever on a cyclic referral graph; this is
// a deliberate behavior change (see design notes) rather than a
// faithful port.
const MaxHops = 16

// DefaultRootPort is the port referrals and the root server are
// contacted on.
const DefaultRootPort = 53053

// Resolver resolves requests recursively against a root server,
// caching final answers by requested name.
type Resolver struct {
	RootAddr string
	RootPort int // defaults to DefaultRootPort when zero
	Cache    *cache.Cache
	Logger   *logging.Logger

	// Audit, if set, receives one record per answered request.
	Audit *audit.Log

	mu   sync.Mutex
	conn net.PacketConn
}

// Open binds the resolver's single outbound UDP socket. It must be
// called once before Handle is used.
func (r *Resolver) Open() error {
	if r.RootPort == 0 {
		r.RootPort = DefaultRootPort
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return err
	}
	r.conn = conn
	return nil
}

// Close releases the outbound socket.
func (r *Resolver) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

// Handle decodes requestBytes, resolves the requested name (using the
// cache when possible, chasing referrals from root otherwise when
// recursion is desired), and returns the encoded response with the
// authoritative bit cleared. A malformed request or an outbound
// transport failure yields a nil response, which the caller (the
// request server) treats as "drop, no reply" without erroring out the
// accept loop.
func (r *Resolver) Handle(requestBytes []byte) []byte {
	req, err := dnsmsg.Parse(requestBytes)
	if err != nil {
		return nil
	}
	name := req.RequestedName()

	if cached, ok := r.Cache.Get(name); ok {
		cached.SetAuthoritative(false)
		r.record(name, cached)
		return cached.Build()
	}

	resp, err := r.sendTo(requestBytes, r.RootAddr, r.RootPort)
	if err != nil {
		return nil
	}

	if req.IsRecursionDesired() {
		resp, err = r.chaseReferrals(requestBytes, name, resp)
		if err != nil {
			return nil
		}
	}

	if resp.RCodeValue() != int(dnsmsg.RCodeServFail) {
		r.Cache.Add(name, resp)
	}

	resp.SetAuthoritative(false)
	r.record(name, resp)
	return resp.Build()
}

// record persists one answered request to Audit, if configured. A
// write failure only gets logged, never returned: audit logging must
// never affect the answer a caller receives.
func (r *Resolver) record(name string, resp dnsmsg.Message) {
	if r.Audit == nil {
		return
	}
	if err := r.Audit.Record(auditServerKey, name, resp.RCodeValue()); err != nil && r.Logger != nil {
		r.Logger.Warn("resolver: audit record failed", "err", err)
	}
}

var errTooManyHops = errors.New("resolver: referral chain exceeded max hops")

// chaseReferrals follows NS referrals starting from resp, resending
// the original request to each referred server, until the chain
// terminates (nil ns_name), becomes self-referential (ns_name equals
// the requested name), or MaxHops is exceeded.
func (r *Resolver) chaseReferrals(originalRequest []byte, requestedName string, resp dnsmsg.Message) (dnsmsg.Message, error) {
	hops := 0
	for resp.NSName() != nil && *resp.NSName() != requestedName {
		hops++
		if hops > MaxHops {
			servfail := dnsmsg.NewResponse(nil)
			servfail.SetEmptyResp(false)
			rc := int(dnsmsg.RCodeServFail)
			servfail.RCode = &rc
			return servfail, nil
		}
		next, err := r.sendTo(originalRequest, resp.Address(), r.RootPort)
		if err != nil {
			return dnsmsg.Message{}, err
		}
		resp = next
	}
	return resp, nil
}

// sendTo serializes a send+receive pair over the resolver's single
// outbound socket, matching the original's single self.udp_sock used
// for every outbound query.
func (r *Resolver) sendTo(request []byte, addr string, port int) (dnsmsg.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	remote, err := net.ResolveUDPAddr("udp", net.JoinHostPort(addr, strconv.Itoa(port)))
	if err != nil {
		return dnsmsg.Message{}, err
	}

	if _, err := r.conn.WriteTo(request, remote); err != nil {
		return dnsmsg.Message{}, err
	}

	_ = r.conn.SetReadDeadline(time.Now().Add(4 * time.Second))
	buf := make([]byte, 65535)
	n, _, err := r.conn.ReadFrom(buf)
	if err != nil {
		return dnsmsg.Message{}, err
	}

	return dnsmsg.Parse(buf[:n])
}
