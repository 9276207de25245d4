// Package httpserver builds the vault's *http.Server.
package httpserver

import (
	"net/http"
	"time"
)

const (
	headerTimeout = 5 * time.Second
	idleTimeout   = 60 * time.Second
	// writeSlack covers response encoding after a handler hits its deadline.
	writeSlack = 5 * time.Second
)

// New returns a server for handler. requestTimeout is the per-request
// handler deadline; the write timeout sits just past it so a timed out
// handler still gets its error body out.
func New(addr string, handler http.Handler, requestTimeout time.Duration) *http.Server {
	read := requestTimeout / 2
	if read < headerTimeout {
		read = headerTimeout
	}
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: headerTimeout,
		ReadTimeout:       read,
		WriteTimeout:      requestTimeout + writeSlack,
		IdleTimeout:       idleTimeout,
	}
}
