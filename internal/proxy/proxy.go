// Package proxy implements the ecosystem's HTTP front door: a single
// route that proxies a request for a named host, resolving that host
// through the recursive resolver first when its suffix is one of the
// configured known endings. Grounded on proxy.py's handle_request and
// on the teacher's api.Server (gin engine construction, slog request
// middleware), replacing proxy.py's hand-rolled RequestServer-over-raw-TCP
// HTTP parsing with an actual net/http server behind gin.
package proxy

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fu-berlin/dnslab/internal/dnsmsg"
	"github.com/fu-berlin/dnslab/internal/logging"
	_ "github.com/fu-berlin/dnslab/internal/proxy/docs"
)

// defaultKnownEndings mirrors proxy.py's hardcoded KNOWN_ENDINGS tuple.
var defaultKnownEndings = []string{"fuberlin", "telematik"}

// Config configures a Server.
type Config struct {
	Addr         string   // host:port to listen on
	ResolverAddr string   // host:port of the recursive resolver
	KnownEndings []string // name suffixes resolved locally rather than passed through; defaults to defaultKnownEndings when nil
	Logger       *logging.Logger
}

// Server is the HTTP proxy.
type Server struct {
	cfg        Config
	engine     *gin.Engine
	httpServer *http.Server
	client     *http.Client
}

// New builds a Server ready to ListenAndServe.
func New(cfg Config) *Server {
	if cfg.KnownEndings == nil {
		cfg.KnownEndings = defaultKnownEndings
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(slogRequestLogger(cfg.Logger))

	s := &Server{
		cfg:    cfg,
		engine: engine,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	// gin rejects a root catch-all route next to /swagger/*any, so every
	// other path reaches the proxy handler through NoRoute instead.
	engine.NoRoute(s.handleProxy)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func slogRequestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		if logger != nil {
			logger.Info("proxy request",
				"path", path,
				"status", c.Writer.Status(),
				"latency_ms", time.Since(start).Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		}
	}
}

// ListenAndServe blocks serving HTTP until Shutdown is called.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) handleProxy(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	host := strings.TrimPrefix(c.Request.URL.Path, "/")
	if host == "" {
		c.String(http.StatusBadRequest, "missing target host")
		return
	}

	corrID := uuid.New().String()[:8]
	target := host
	if s.isKnownEnding(host) {
		resolved, err := s.resolveLocally(host)
		if err != nil {
			if s.cfg.Logger != nil {
				s.cfg.Logger.Warn("proxy: local resolve failed", "corr_id", corrID, "host", host, "err", err)
			}
			c.String(http.StatusBadGateway, "resolution failed")
			return
		}
		target = resolved
	}

	resp, err := s.client.Get("http://" + target)
	if err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Warn("proxy: upstream request failed", "corr_id", corrID, "target", target, "err", err)
		}
		c.String(http.StatusBadGateway, "upstream request failed")
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.String(http.StatusBadGateway, "upstream read failed")
		return
	}
	c.Data(resp.StatusCode, resp.Header.Get("Content-Type"), body)
}

func (s *Server) isKnownEnding(host string) bool {
	for _, ending := range s.cfg.KnownEndings {
		if strings.HasSuffix(host, ending) {
			return true
		}
	}
	return false
}

// resolveLocally asks the recursive resolver for host's address over
// a one-shot UDP round trip, mirroring proxy.py's _resolve_locally.
func (s *Server) resolveLocally(host string) (string, error) {
	req := dnsmsg.NewRequest(nil)
	recursionDesired := true
	req.SetReq(host, false, &recursionDesired)

	conn, err := net.Dial("udp", s.cfg.ResolverAddr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	if _, err := conn.Write(req.Build()); err != nil {
		return "", err
	}

	_ = conn.SetReadDeadline(time.Now().Add(4 * time.Second))
	buf := make([]byte, 65535)
	n, err := conn.Read(buf)
	if err != nil {
		return "", err
	}

	resp, err := dnsmsg.Parse(buf[:n])
	if err != nil {
		return "", err
	}
	return resp.Address(), nil
}
