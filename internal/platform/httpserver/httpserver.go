package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the timeouts used across the BFF. Uploads
// of up to 10MB need the longer read timeout.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
