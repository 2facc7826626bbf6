package authserver

import (
	"testing"

	"github.com/fu-berlin/dnslab/internal/dnsmsg"
	"github.com/fu-berlin/dnslab/internal/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rootZone(t *testing.T) *zone.Zone {
	t.Helper()
	z := zone.New()
	rec1, err := zone.ParseLine("fuberlin\tIN\tNS\t127.0.0.15")
	require.NoError(t, err)
	rec2, err := zone.ParseLine("telematik\tIN\tNS\t127.0.0.12")
	require.NoError(t, err)
	z.Put(rec1)
	z.Put(rec2)
	return z
}

func TestHandleS1ReferralForFuberlin(t *testing.T) {
	srv := &Server{Zone: rootZone(t)}

	req := dnsmsg.NewRequest(nil)
	req.SetReq("fuberlin", true, nil)

	resp, err := dnsmsg.Parse(srv.Handle(req.Build()))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.15", resp.Address())
	require.NotNil(t, resp.NSName())
	assert.Equal(t, "fuberlin", *resp.NSName())
	assert.True(t, *resp.Authoritative)
	assert.Equal(t, int(dnsmsg.RCodeNoError), *resp.RCode)
}

func TestHandleS2UnknownNameIsEmptyNXDomain(t *testing.T) {
	srv := &Server{Zone: rootZone(t)}

	req := dnsmsg.NewRequest(nil)
	req.SetReq("unknown.tld", true, nil)

	resp, err := dnsmsg.Parse(srv.Handle(req.Build()))
	require.NoError(t, err)

	assert.Equal(t, int(dnsmsg.RCodeNXDomain), *resp.RCode)
	assert.True(t, *resp.Authoritative)
	assert.Equal(t, 0, *resp.CountAnswers)
}

func TestHandleTerminalARecordHasNilNS(t *testing.T) {
	z := zone.New()
	rec, err := zone.ParseLine("windows.pcpools.fuberlin\tIN\t60\tA\t127.0.0.17")
	require.NoError(t, err)
	z.Put(rec)
	srv := &Server{Zone: z}

	req := dnsmsg.NewRequest(nil)
	req.SetReq("windows.pcpools.fuberlin", false, nil)

	resp, err := dnsmsg.Parse(srv.Handle(req.Build()))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.17", resp.Address())
	assert.Nil(t, resp.NSName())
	assert.Equal(t, 60, resp.TTL())
	assert.Equal(t, int(dnsmsg.RCodeNoError), *resp.RCode)
}

func TestHandleMalformedRequestIsEmptyNXDomain(t *testing.T) {
	srv := &Server{Zone: rootZone(t)}

	resp, err := dnsmsg.Parse(srv.Handle([]byte("not json")))
	require.NoError(t, err)
	assert.Equal(t, int(dnsmsg.RCodeNXDomain), *resp.RCode)
	assert.Equal(t, 0, *resp.CountAnswers)
}
