// Package upgrade turns an inbound plaintext request into the request sent
// to the secure origin.
package upgrade

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
	"golang.org/x/net/http/httpguts"
)

const Scheme = "https"

var (
	errHostSyntax   = errors.New("not a valid host header")
	errNotAuthority = errors.New("contains userinfo, path, query or fragment")
	errBadPort      = errors.New("port is not a number in 0-65535")
	errEmptyHost    = errors.New("empty host")
)

type Upgrader struct {
	// ForwardBody sends the inbound body to the origin unchanged. When
	// false the origin receives an empty body.
	ForwardBody bool
	// StripAcceptEncoding removes Accept-Encoding so the origin answers
	// with a body the pipeline can read.
	StripAcceptEncoding bool
}

func New(cfg config.UpstreamConfig) *Upgrader {
	return &Upgrader{
		ForwardBody:         cfg.ForwardRequestBody,
		StripAcceptEncoding: cfg.StripAcceptEncoding,
	}
}

// Upgrade returns a copy of req aimed at https://<Host><path>. The copy
// shares req's context, so cancelling the inbound request cancels the
// upstream one.
func (u *Upgrader) Upgrade(req *http.Request) (*http.Request, error) {
	host := req.Host
	if host == "" {
		host = req.Header.Get("Host")
	}
	if host == "" {
		return nil, common.NewError(common.ErrMissingHost, "", nil)
	}
	authority, err := ParseAuthority(host)
	if err != nil {
		return nil, common.NewError(common.ErrInvalidAuthority, host, err)
	}

	out := req.Clone(req.Context())
	out.RequestURI = ""
	out.Host = authority
	out.Header.Del("Host")

	target := *req.URL
	target.Scheme = Scheme
	target.Host = authority
	target.User = nil
	target.Fragment = ""
	target.RawFragment = ""
	out.URL = &target

	if !u.ForwardBody || req.Body == nil {
		out.Body = http.NoBody
		out.ContentLength = 0
		out.GetBody = nil
		out.Header.Del("Content-Length")
	}
	if u.StripAcceptEncoding {
		out.Header.Del("Accept-Encoding")
	}
	return out, nil
}

// ParseAuthority checks that host is a bare host[:port] authority and
// returns it unchanged.
func ParseAuthority(host string) (string, error) {
	if !httpguts.ValidHostHeader(host) {
		return "", errHostSyntax
	}
	if strings.ContainsAny(host, "@/?#") {
		return "", errNotAuthority
	}

	name := host
	switch h, port, err := net.SplitHostPort(host); {
	case err == nil:
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return "", errBadPort
		}
		name = h
	case strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]"):
		name = host[1 : len(host)-1]
	case strings.Contains(host, ":"):
		return "", errHostSyntax
	}
	if name == "" {
		return "", errEmptyHost
	}
	return host, nil
}
