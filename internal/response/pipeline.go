package response

import (
	"net/http"
	"strconv"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"github.com/the-insecure-proxy/insecure-proxy/internal/config"
	"github.com/the-insecure-proxy/insecure-proxy/internal/rewrite"
)

type Options struct {
	MimeTypes             []string
	Headers               []string
	StripSecureCookies    bool
	DropHSTS              bool
	DecodeContentEncoding bool
	MaxBodySize           int64
}

func OptionsFromConfig(cfg config.RewriteConfig) Options {
	return Options{
		MimeTypes:             cfg.MimeTypes,
		Headers:               cfg.Headers,
		StripSecureCookies:    cfg.StripSecureCookies,
		DropHSTS:              cfg.DropHSTS,
		DecodeContentEncoding: cfg.DecodeContentEncoding,
		MaxBodySize:           cfg.MaxBodySize,
	}
}

// Result summarizes what Process changed.
type Result struct {
	BodyRewritten    bool
	Replacements     int
	HeadersRewritten int
	DecodedEncoding  string
}

// Pipeline downgrades https:// links in a collected response. It holds only
// configuration and is safe for concurrent use; every body gets its own
// Rewriter.
type Pipeline struct {
	mimes   MimeList
	headers []string
	opts    Options
}

func New(opts Options) *Pipeline {
	headers := []string{"Location"}
	for _, h := range opts.Headers {
		h = http.CanonicalHeaderKey(h)
		if h != "Location" {
			headers = append(headers, h)
		}
	}
	return &Pipeline{
		mimes:   NewMimeList(opts.MimeTypes),
		headers: headers,
		opts:    opts,
	}
}

// Process rewrites rec in place. Headers are handled first, so an error
// leaves the body untouched.
func (p *Pipeline) Process(rec *Record) (Result, error) {
	var res Result

	for _, key := range p.headers {
		n, err := rewriteHeader(rec.Header, key)
		if err != nil {
			return res, err
		}
		res.HeadersRewritten += n
	}
	if p.opts.StripSecureCookies {
		n, err := stripSecureCookies(rec.Header)
		if err != nil {
			return res, err
		}
		res.HeadersRewritten += n
	}
	if p.opts.DropHSTS && rec.Header.Get("Strict-Transport-Security") != "" {
		rec.Header.Del("Strict-Transport-Security")
		res.HeadersRewritten++
	}

	if rec.NoBody || !p.mimes.Allows(rec.Header.Get("Content-Type")) {
		return res, nil
	}

	body := rec.Body
	codings := contentCodings(rec.Header.Get("Content-Encoding"))
	if len(codings) > 0 {
		if !p.opts.DecodeContentEncoding {
			return res, nil
		}
		for _, c := range codings {
			if !supportedCoding(c) {
				return res, nil
			}
		}
		decoded, err := decodeBody(body, codings, p.opts.MaxBodySize)
		if err != nil {
			return res, common.NewError(common.ErrBodyRead, "Content-Encoding", err)
		}
		body = decoded
		res.DecodedEncoding = rec.Header.Get("Content-Encoding")
		rec.Header.Del("Content-Encoding")
	}

	rw := rewrite.New()
	_, _ = rw.Write(body)
	rw.Flush()
	rec.Body = rw.Drain()
	rec.Header.Set("Content-Length", strconv.Itoa(len(rec.Body)))

	res.BodyRewritten = true
	res.Replacements = rw.Replacements()
	return res, nil
}

func (p *Pipeline) MimeTypes() []string {
	return p.mimes.Types()
}
