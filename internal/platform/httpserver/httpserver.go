package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with sane defaults for this project. Write
// timeouts sit above the store timeout so handlers can report a storage
// timeout before the connection is cut.
func New(addr string, handler http.Handler, storeTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      storeTimeout*3 + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
