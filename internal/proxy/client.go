package proxy

import (
	"crypto/tls"
	"net/http"

	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
)

// Doer sends an upgraded request to the origin.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// NewClient builds the upstream client. Redirects are returned to the
// caller so their Location header goes through the pipeline.
func NewClient(cfg config.UpstreamConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	}
	return &http.Client{
		Transport:     transport,
		Timeout:       cfg.Timeout,
		CheckRedirect: noRedirect,
	}
}

func noRedirect(*http.Request, []*http.Request) error {
	return http.ErrUseLastResponse
}
