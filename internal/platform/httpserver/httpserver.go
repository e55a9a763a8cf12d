package httpserver

import (
	"net/http"
	"time"
)

// New builds the verification API server. Requests are short (issue, submit,
// inspect), so timeouts are tight; the slowest path is a reconciliation read
// through the chain gateway, well inside the write timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
