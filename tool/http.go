package tool

import (
	"net/http"
	"time"
)

var DefaultTimeout = 10 * time.Second

// NewHTTPClient returns the client used for outbound webhook calls.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: DefaultTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     30 * time.Second,
		},
	}
}
