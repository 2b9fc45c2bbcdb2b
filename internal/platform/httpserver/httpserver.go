// Package httpserver constructs the screening API's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server. ReadHeaderTimeout bounds slow-header clients; body
// read and write deadlines are left to the handlers, which carry their own
// store timeouts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
