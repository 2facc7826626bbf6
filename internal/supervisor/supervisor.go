// Package supervisor starts and stops the batches of servers that make
// up one running ecosystem: a set of authoritative name servers, one
// recursive resolver, and the HTTP proxy in front of it. Grounded on
// dns_server_batch.py's DnsServerBatch (run_all/stop_all over a list of
// SimpleDnsServer instances) and main.py's top-level wiring, generalized
// the way the teacher's server.Runner generalizes "load config, start
// servers, wait for signal, shut down".
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/fu-berlin/dnslab/internal/audit"
	"github.com/fu-berlin/dnslab/internal/authserver"
	"github.com/fu-berlin/dnslab/internal/cache"
	"github.com/fu-berlin/dnslab/internal/config"
	"github.com/fu-berlin/dnslab/internal/greeting"
	"github.com/fu-berlin/dnslab/internal/health"
	"github.com/fu-berlin/dnslab/internal/logging"
	"github.com/fu-berlin/dnslab/internal/proxy"
	"github.com/fu-berlin/dnslab/internal/reqserver"
	"github.com/fu-berlin/dnslab/internal/resolver"
	"github.com/fu-berlin/dnslab/internal/zone"
)

// proxyShutdownTimeout bounds how long StopAll waits for the proxy's
// in-flight requests to finish before giving up.
const proxyShutdownTimeout = 5 * time.Second

const (
	authoritativePort = 53053
	greetingPort      = 80
)

// authPair is one authoritative name server: a zone-backed handler
// plus the request server that exposes it, tagged with a correlation
// id for its log lines.
type authPair struct {
	id      string
	ip      string
	auth    *authserver.Server
	request *reqserver.Server
}

// Supervisor owns every running component for one ecosystem instance.
type Supervisor struct {
	Logger *slog.Logger

	logging         *logging.Logger
	audit           *audit.Log
	pairs           []*authPair
	resolver        *resolver.Resolver
	resolverServer  *reqserver.Server
	proxyServer     *proxy.Server
	greetingServers []*greeting.Server
	healthReporter  *health.Reporter
}

// New returns an empty Supervisor. logger, if non-nil, backs the
// buffered *logging.Logger handed to every component this Supervisor
// starts.
func New(logger *slog.Logger) *Supervisor {
	s := &Supervisor{Logger: logger}
	if logger != nil {
		s.logging = logging.New(logger)
	}
	return s
}

// StartAudit opens (creating if necessary) a SQLite-backed audit log at
// path and wires it into every authoritative server and resolver
// started afterward. It must be called before StartAuthoritative and
// StartResolver to take effect on their instances.
func (s *Supervisor) StartAudit(path string) error {
	log, err := audit.Open(path)
	if err != nil {
		return fmt.Errorf("supervisor: opening audit log: %w", err)
	}
	s.audit = log
	return nil
}

// StartAuthoritative loads every zone named in cfg.DnsConfig (resolved
// relative to configDir) and starts one AuthoritativeServer+reqserver
// pair per entry, each bound to its configured IP on authoritativePort.
func (s *Supervisor) StartAuthoritative(cfg *config.Config, configDir string) error {
	for ip, zoneName := range cfg.DnsConfig {
		z, err := zone.LoadFile(config.ZonePath(configDir, zoneName))
		if err != nil {
			return fmt.Errorf("supervisor: loading zone %q for %s: %w", zoneName, ip, err)
		}

		id := uuid.New().String()[:8]
		auth := &authserver.Server{Zone: z, Logger: s.logging, Audit: s.audit, ServerKey: ip}
		addr := net.JoinHostPort(ip, strconv.Itoa(authoritativePort))
		srv := &reqserver.Server{Network: "udp", Addr: addr, Handler: auth.Handle, Logger: s.logging}

		if err := srv.OpenSocket(); err != nil {
			return fmt.Errorf("supervisor: opening socket for %s (%s): %w", ip, zoneName, err)
		}
		srv.Run(true)

		if s.Logger != nil {
			s.Logger.Info("authoritative server started", "id", id, "ip", ip, "zone", zoneName, "addr", addr)
		}

		s.pairs = append(s.pairs, &authPair{id: id, ip: ip, auth: auth, request: srv})
	}
	return nil
}

// StartResolver starts the recursive resolver bound to ip:port,
// chasing referrals from cfg's configured root server.
func (s *Supervisor) StartResolver(cfg *config.Config, ip string, port int) error {
	r := &resolver.Resolver{
		RootAddr: cfg.RootAddress(),
		RootPort: authoritativePort,
		Cache:    cache.New(),
		Logger:   s.logging,
		Audit:    s.audit,
	}
	if err := r.Open(); err != nil {
		return fmt.Errorf("supervisor: opening resolver socket: %w", err)
	}

	addr := net.JoinHostPort(ip, strconv.Itoa(port))
	srv := &reqserver.Server{Network: "udp", Addr: addr, Handler: r.Handle, Logger: s.logging}
	if err := srv.OpenSocket(); err != nil {
		r.Close()
		return fmt.Errorf("supervisor: opening resolver request socket: %w", err)
	}
	srv.Run(true)

	if s.Logger != nil {
		s.Logger.Info("recursive resolver started", "addr", addr, "root", cfg.RootAddress())
	}

	s.resolver = r
	s.resolverServer = srv
	return nil
}

// StartProxy starts the HTTP proxy on addr, resolving names recursively
// through resolverAddr for the default known name-suffix set before
// falling back to a direct pass-through.
func (s *Supervisor) StartProxy(cfg *config.Config, addr, resolverAddr string) {
	p := proxy.New(proxy.Config{
		Addr:         addr,
		ResolverAddr: resolverAddr,
		Logger:       s.logging,
	})
	s.proxyServer = p

	go func() {
		if err := p.ListenAndServe(); err != nil && s.Logger != nil {
			s.Logger.Warn("proxy server exited", "err", err)
		}
	}()
}

// StartGreetingServers starts one backend HTTP server per cfg.HttpConfig
// entry, each bound to its IP on greetingPort and answering every
// request with its configured message — these are the servers the
// proxy fetches from once it has resolved a name to one of these
// addresses.
func (s *Supervisor) StartGreetingServers(cfg *config.Config) {
	for ip, msg := range cfg.HttpConfig {
		g := &greeting.Server{Addr: net.JoinHostPort(ip, strconv.Itoa(greetingPort)), Message: msg, Logger: s.logging}
		s.greetingServers = append(s.greetingServers, g)
		go func() {
			if err := g.ListenAndServe(); err != nil && s.Logger != nil {
				s.Logger.Warn("greeting server exited", "addr", g.Addr, "err", err)
			}
		}()
	}
}

// StartHealthReporting begins periodic resource-usage logging.
func (s *Supervisor) StartHealthReporting(interval, sampleWindow time.Duration) {
	s.healthReporter = &health.Reporter{Interval: interval, SampleWindow: sampleWindow, Logger: s.logging}
	s.healthReporter.Start()
}

// StopAll stops every running listener and shuts down the HTTP
// servers. Name server and resolver sockets remain bound, matching the
// ecosystem-wide convention that a stop never releases those
// addresses; the proxy and greeting servers, being plain HTTP servers
// with no such convention, are fully shut down instead.
func (s *Supervisor) StopAll() {
	for _, p := range s.pairs {
		p.request.StopListening()
	}
	if s.resolverServer != nil {
		s.resolverServer.StopListening()
	}
	if s.proxyServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), proxyShutdownTimeout)
		defer cancel()
		if err := s.proxyServer.Shutdown(ctx); err != nil && s.Logger != nil {
			s.Logger.Warn("proxy shutdown failed", "err", err)
		}
	}
	for _, g := range s.greetingServers {
		_ = g.Shutdown()
	}
	if s.healthReporter != nil {
		s.healthReporter.Stop()
	}
	if s.audit != nil {
		if err := s.audit.Close(); err != nil && s.Logger != nil {
			s.Logger.Warn("audit log close failed", "err", err)
		}
	}
	if s.Logger != nil {
		s.Logger.Info("supervisor stopped, sockets remain bound")
	}
}
