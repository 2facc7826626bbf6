package resolver

import (
	"fmt"
	"net"
	"testing"

	"github.com/fu-berlin/dnslab/internal/cache"
	"github.com/fu-berlin/dnslab/internal/dnsmsg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sharedStubPort is the single port every stub authoritative server
// binds on, each on its own loopback IP, mirroring this ecosystem's
// single fixed name-server port (53053) used for every hop.
const sharedStubPort = 25053

// stubServer answers every UDP datagram on ip:sharedStubPort with the
// result of respond, so tests can script a name server's behavior
// without zone files.
func stubServer(t *testing.T, ip string, respond func(req []byte) []byte) {
	t.Helper()
	conn, err := net.ListenPacket("udp", fmt.Sprintf("%s:%d", ip, sharedStubPort))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 65535)
		for {
			n, peer, err := conn.ReadFrom(buf)
			if err != nil {
				return
			}
			if resp := respond(buf[:n]); resp != nil {
				_, _ = conn.WriteTo(resp, peer)
			}
		}
	}()
}

func newResolver(t *testing.T, rootAddr string) *Resolver {
	t.Helper()
	r := &Resolver{RootAddr: rootAddr, RootPort: sharedStubPort, Cache: cache.New()}
	require.NoError(t, r.Open())
	t.Cleanup(func() { r.Close() })
	return r
}

func referralResponse(nsName, address string, ttl int) []byte {
	m := dnsmsg.NewResponse(nil)
	ns := nsName
	m.SetResp(address, 1, true, true, ttl, &ns)
	return m.Build()
}

func terminalResponse(address string, ttl int) []byte {
	m := dnsmsg.NewResponse(nil)
	m.SetResp(address, 1, true, true, ttl, nil)
	return m.Build()
}

func boolPtr(b bool) *bool { return &b }

func TestHandleTerminalAnswerFromRoot(t *testing.T) {
	stubServer(t, "127.0.1.1", func(req []byte) []byte {
		return terminalResponse("127.0.0.15", 300)
	})

	r := newResolver(t, "127.0.1.1")

	req := dnsmsg.NewRequest(nil)
	req.SetReq("fuberlin", true, boolPtr(true))

	resp, err := dnsmsg.Parse(r.Handle(req.Build()))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.15", resp.Address())
	assert.False(t, *resp.Authoritative)
}

func TestHandleChasesReferralToTerminalAnswer(t *testing.T) {
	stubServer(t, "127.0.1.2", func(req []byte) []byte {
		return terminalResponse("127.0.0.17", 60)
	})
	stubServer(t, "127.0.1.3", func(req []byte) []byte {
		return referralResponse("pcpools.fuberlin", "127.0.1.2", 300)
	})

	r := newResolver(t, "127.0.1.3")

	req := dnsmsg.NewRequest(nil)
	req.SetReq("windows.pcpools.fuberlin", false, boolPtr(true))

	resp, err := dnsmsg.Parse(r.Handle(req.Build()))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.17", resp.Address())
	assert.Nil(t, resp.NSName())
	assert.Equal(t, 60, resp.TTL())
	assert.False(t, *resp.Authoritative)
}

func TestHandleCacheHitSkipsNetwork(t *testing.T) {
	calls := 0
	stubServer(t, "127.0.1.4", func(req []byte) []byte {
		calls++
		return terminalResponse("127.0.0.17", 60)
	})

	r := newResolver(t, "127.0.1.4")

	req := dnsmsg.NewRequest(nil)
	req.SetReq("windows.pcpools.fuberlin", false, boolPtr(true))
	reqBytes := req.Build()

	_, err := dnsmsg.Parse(r.Handle(reqBytes))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	resp2, err := dnsmsg.Parse(r.Handle(reqBytes))
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second resolve must be served from cache, no extra network round trip")
	assert.Less(t, resp2.TTL(), 60)
	assert.Greater(t, resp2.TTL(), 0)
}

func TestHandleSelfReferentialTerminatesImmediately(t *testing.T) {
	stubServer(t, "127.0.1.5", func(req []byte) []byte {
		return referralResponse("fuberlin", "127.0.0.15", 300)
	})

	r := newResolver(t, "127.0.1.5")

	req := dnsmsg.NewRequest(nil)
	req.SetReq("fuberlin", true, boolPtr(true))

	resp, err := dnsmsg.Parse(r.Handle(req.Build()))
	require.NoError(t, err)
	assert.Equal(t, "fuberlin", *resp.NSName())
}

func TestHandleCyclicReferralReturnsServFail(t *testing.T) {
	stubServer(t, "127.0.1.6", func(req []byte) []byte {
		return referralResponse("loop", "127.0.1.7", 300)
	})
	stubServer(t, "127.0.1.7", func(req []byte) []byte {
		return referralResponse("loop", "127.0.1.6", 300)
	})

	r := newResolver(t, "127.0.1.6")

	req := dnsmsg.NewRequest(nil)
	req.SetReq("nonterminal", true, boolPtr(true))

	resp, err := dnsmsg.Parse(r.Handle(req.Build()))
	require.NoError(t, err)
	assert.Equal(t, int(dnsmsg.RCodeServFail), *resp.RCode)
}

func TestHandleMalformedRequestReturnsNil(t *testing.T) {
	stubServer(t, "127.0.1.8", func(req []byte) []byte { return nil })

	r := newResolver(t, "127.0.1.8")
	assert.Nil(t, r.Handle([]byte("not json")))
}
