package common

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// Metadata describes one inbound request for logging and statistics.
type Metadata struct {
	Request  *http.Request
	Upstream string
}

func NewMetadata(req *http.Request) *Metadata {
	return &Metadata{Request: req}
}

func (m *Metadata) RequestID() string {
	if m.Request == nil {
		return ""
	}
	return middleware.GetReqID(m.Request.Context())
}

func (m *Metadata) SrcAddr() string {
	if m.Request == nil {
		return ""
	}
	return m.Request.RemoteAddr
}

// Host is the Host header without its port.
func (m *Metadata) Host() string {
	if m.Request == nil {
		return ""
	}
	host := m.Request.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

func (m *Metadata) LogValue() slog.Value {
	if m.Request == nil {
		return slog.GroupValue()
	}
	attrs := []slog.Attr{
		slog.String("request_id", m.RequestID()),
		slog.String("src_addr", m.SrcAddr()),
		slog.String("method", m.Request.Method),
		slog.String("host", m.Request.Host),
		slog.String("uri", m.Request.RequestURI),
	}
	if m.Upstream != "" {
		attrs = append(attrs, slog.String("upstream", m.Upstream))
	}
	return slog.GroupValue(attrs...)
}

func (m *Metadata) LogDebug(msg string, args ...any) {
	slog.Debug(msg, append([]any{slog.Any("request", m)}, args...)...)
}

func (m *Metadata) LogInfo(msg string, args ...any) {
	slog.Info(msg, append([]any{slog.Any("request", m)}, args...)...)
}

func (m *Metadata) LogWarn(msg string, args ...any) {
	slog.Warn(msg, append([]any{slog.Any("request", m)}, args...)...)
}

func (m *Metadata) LogError(msg string, args ...any) {
	slog.Error(msg, append([]any{slog.Any("request", m)}, args...)...)
}
