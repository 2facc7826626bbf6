// Package greeting implements the ecosystem's backend HTTP servers: one
// per configured IP, each answering every request with a fixed message
// alongside an echo of the request line. Grounded on
// http_server/simple_http_server.py's SimpleHttpServer (constant
// DEFAULT_MSG_PATTERN, handle_request echoing the request) and
// http_server_batch.py's HttpServerBatch (one instance per ip->msg
// entry); these are the servers the proxy actually fetches from once it
// has resolved a name to an address.
package greeting

import (
	"fmt"
	"net/http"

	"github.com/fu-berlin/dnslab/internal/logging"
)

// messagePattern mirrors SimpleHttpServer.DEFAULT_MSG_PATTERN.
const messagePattern = "Request\n%s\n\nMsg:\n%s"

// Server answers every request on Addr with Message.
type Server struct {
	Addr    string
	Message string
	Logger  *logging.Logger

	httpServer *http.Server
}

// ListenAndServe blocks serving HTTP until Shutdown is called.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	s.httpServer = &http.Server{Addr: s.Addr, Handler: mux}
	return s.httpServer.ListenAndServe()
}

// Shutdown stops the server immediately: it closes the listener and
// every open connection without waiting for in-flight requests.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.Logger != nil {
		s.Logger.Info("greeting server request", "addr", s.Addr, "path", r.URL.Path)
	}
	fmt.Fprintf(w, messagePattern, r.Method+" "+r.URL.Path, s.Message)
}
