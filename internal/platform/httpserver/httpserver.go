// Package httpserver builds the API process's http.Server from configuration.
package httpserver

import (
	"net/http"

	"stamply/internal/platform/config"
)

// New returns a server bound to the configured address. The header timeout
// protects the accept loop from slow-header clients; write and idle timeouts
// bound each exchange and keep-alive reuse.
func New(cfg config.Server, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}
