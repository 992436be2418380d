// Package proxy serves plaintext clients from secure origins, downgrading
// https:// links in what it returns.
package proxy

import (
	"log/slog"
	"net/http"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
	"github.com/the-insecure-proxy/insecure-proxy/internal/response"
	"github.com/the-insecure-proxy/insecure-proxy/internal/rule"
	"github.com/the-insecure-proxy/insecure-proxy/internal/statistics"
	"github.com/the-insecure-proxy/insecure-proxy/internal/upgrade"
)

const (
	failureStatus = http.StatusBadGateway
	kindCanceled  = "Canceled"
)

type Proxy struct {
	client   Doer
	upgrader *upgrade.Upgrader
	pipeline *response.Pipeline
	rules    *rule.Engine
	recorder *statistics.Recorder
	maxBody  int64
}

// New builds the orchestrator. rules and recorder may be nil.
func New(cfg *config.Config, client Doer, rules *rule.Engine, recorder *statistics.Recorder) *Proxy {
	return &Proxy{
		client:   client,
		upgrader: upgrade.New(cfg.Upstream),
		pipeline: response.New(response.OptionsFromConfig(cfg.Rewrite)),
		rules:    rules,
		recorder: recorder,
		maxBody:  cfg.Rewrite.MaxBodySize,
	}
}

func (p *Proxy) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	meta := common.NewMetadata(req)
	outcome := &statistics.Outcome{Host: meta.Host()}
	done := p.recorder.Begin(&statistics.ActiveRequest{
		ID:      meta.RequestID(),
		SrcAddr: meta.SrcAddr(),
		Method:  req.Method,
		Host:    req.Host,
		URI:     req.RequestURI,
	})
	defer func() { done(outcome) }()

	if action, matched := p.rules.Decide(meta); action == common.ActionReject {
		meta.LogInfo("Request rejected by rule", slog.Any("rule", matched))
		outcome.Rejected = true
		outcome.Status = http.StatusForbidden
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	rec, res, err := p.roundTrip(req, meta)
	if err != nil {
		p.fail(w, req, meta, outcome, err)
		return
	}

	outcome.Status = rec.StatusCode
	outcome.BodyRewritten = res.BodyRewritten
	outcome.BodyBytes = len(rec.Body)
	outcome.Replacements = res.Replacements
	outcome.HeadersRewritten = res.HeadersRewritten

	meta.LogInfo("Proxied",
		slog.Int("status", rec.StatusCode),
		slog.Bool("body_rewritten", res.BodyRewritten),
		slog.Int("replacements", res.Replacements),
		slog.Int("headers_rewritten", res.HeadersRewritten),
	)

	if err := rec.WriteTo(w); err != nil {
		meta.LogDebug("rec.WriteTo", slog.Any("error", err))
	}
}

// roundTrip upgrades req, sends it to the origin and runs the collected
// response through the pipeline.
func (p *Proxy) roundTrip(req *http.Request, meta *common.Metadata) (*response.Record, response.Result, error) {
	var res response.Result

	out, err := p.upgrader.Upgrade(req)
	if err != nil {
		return nil, res, err
	}
	meta.Upstream = out.URL.String()
	removeHopByHop(out.Header)

	meta.LogDebug("Forwarding to origin")
	resp, err := p.client.Do(out)
	if err != nil {
		return nil, res, common.NewError(common.ErrTransport, out.URL.Host, err)
	}

	rec, err := response.ReadRecord(resp, p.maxBody)
	if err != nil {
		return nil, res, err
	}
	removeHopByHop(rec.Header)

	res, err = p.pipeline.Process(rec)
	if err != nil {
		return nil, res, err
	}
	return rec, res, nil
}

// fail maps every per-request error onto the one generic failure
// response. Nothing is written once the client is gone.
func (p *Proxy) fail(w http.ResponseWriter, req *http.Request, meta *common.Metadata, outcome *statistics.Outcome, err error) {
	if req.Context().Err() != nil {
		meta.LogDebug("Client went away", slog.Any("error", err))
		outcome.ErrKind = kindCanceled
		return
	}

	kind := common.KindName(err)
	meta.LogError("Proxy request failed", slog.String("kind", kind), slog.Any("error", err))
	outcome.ErrKind = kind
	outcome.Status = failureStatus
	http.Error(w, http.StatusText(failureStatus), failureStatus)
}
