package response

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
)

var ErrBodyTooLarge = errors.New("body exceeds size limit")

// Record is a fully collected origin response. The pipeline mutates it in
// place.
type Record struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// NoBody marks responses that never carry a body on the wire (HEAD,
	// 1xx, 204, 304). Their Content-Length describes a body that was not
	// sent and is left alone.
	NoBody bool
}

// ReadRecord collects resp into a Record and closes its body. A limit of
// zero disables the size cap.
func ReadRecord(resp *http.Response, limit int64) (*Record, error) {
	defer resp.Body.Close()

	body, err := readLimited(resp.Body, limit)
	if err != nil {
		return nil, common.NewError(common.ErrBodyRead, "", err)
	}

	noBody := resp.StatusCode < 200 ||
		resp.StatusCode == http.StatusNoContent ||
		resp.StatusCode == http.StatusNotModified ||
		(resp.Request != nil && resp.Request.Method == http.MethodHead)

	return &Record{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       body,
		NoBody:     noBody,
	}, nil
}

// WriteTo serializes the record onto w.
func (r *Record) WriteTo(w http.ResponseWriter) error {
	dst := w.Header()
	for k, vv := range r.Header {
		dst[k] = append([]string(nil), vv...)
	}
	if !r.NoBody && dst.Get("Content-Length") == "" {
		dst.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}
	w.WriteHeader(r.StatusCode)
	if r.NoBody || len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}
