// Command supervisor starts the authoritative servers, recursive
// resolver and HTTP proxy described by a configuration file, and keeps
// them running until interrupted. Grounded on main.py's top-level
// wiring and the teacher's cmd/hydradns entrypoint (flag parsing,
// structured startup logging, signal-driven shutdown).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fu-berlin/dnslab/internal/cliargs"
	"github.com/fu-berlin/dnslab/internal/config"
	"github.com/fu-berlin/dnslab/internal/supervisor"
)

const (
	defaultHealthInterval    = 30 * time.Second
	defaultHealthSampleWindow = time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "deploy/config.json", "path to the ecosystem configuration file")
		proxyIP    = flag.String("proxy-ip", "0.0.0.0", "ip the HTTP proxy binds")
		proxyPort  = flag.Int("proxy-port", 8080, "port the HTTP proxy binds")
		resolverIP = flag.String("resolver-ip", "127.0.0.1", "ip the recursive resolver binds (a positional IP argument overrides it)")
		auditDB    = flag.String("audit-db", "deploy/audit.db", "path to the SQLite audit log")
		jsonLogs   = flag.Bool("json-logs", false, "emit JSON structured logs instead of text")
	)
	flag.Parse()

	var handler slog.Handler
	if *jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	configDir, err := configDirOf(*configPath)
	if err != nil {
		return err
	}

	binding := cliargs.Extract(flag.Args())

	sup := supervisor.New(logger)

	if err := sup.StartAudit(*auditDB); err != nil {
		return fmt.Errorf("starting audit log: %w", err)
	}

	if err := sup.StartAuthoritative(cfg, configDir); err != nil {
		return fmt.Errorf("starting authoritative servers: %w", err)
	}

	resolverBindIP := *resolverIP
	if binding.IP != "" {
		resolverBindIP = binding.IP
	}
	resolverPort := binding.Port
	if err := sup.StartResolver(cfg, resolverBindIP, resolverPort); err != nil {
		return fmt.Errorf("starting resolver: %w", err)
	}

	resolverAddr := fmt.Sprintf("%s:%d", resolverBindIP, resolverPort)
	proxyListenAddr := fmt.Sprintf("%s:%d", *proxyIP, *proxyPort)
	sup.StartProxy(cfg, proxyListenAddr, resolverAddr)
	sup.StartGreetingServers(cfg)
	sup.StartHealthReporting(defaultHealthInterval, defaultHealthSampleWindow)

	logger.Info("ecosystem started",
		"config", *configPath,
		"resolver_addr", resolverAddr,
		"proxy_addr", proxyListenAddr,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()

	logger.Info("shutdown signal received, stopping accept loops; sockets remain bound")
	sup.StopAll()
	return nil
}

func configDirOf(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving config path: %w", err)
	}
	return filepath.Dir(abs), nil
}
