package response

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"github.com/the-insecure-proxy/insecure-proxy/internal/common"
	"golang.org/x/net/http/httpguts"
)

const (
	securePrefix    = "https://"
	plaintextPrefix = "http://"
)

// secureAttr matches a cookie's Secure attribute together with the
// separator before it.
var secureAttr = regexp2.MustCompile(`;\s*Secure\s*(?=;|$)`, regexp2.IgnoreCase)

// rewriteHeader replaces every https:// in every value of key. It returns
// the number of values that changed.
func rewriteHeader(h http.Header, key string) (int, error) {
	values := h.Values(key)
	if len(values) == 0 {
		return 0, nil
	}
	changed := 0
	out := make([]string, len(values))
	for i, v := range values {
		if !validText(v) {
			return 0, common.NewError(common.ErrHeaderEncoding, http.CanonicalHeaderKey(key), nil)
		}
		out[i] = strings.ReplaceAll(v, securePrefix, plaintextPrefix)
		if out[i] != v {
			changed++
		}
	}
	if changed > 0 {
		h[http.CanonicalHeaderKey(key)] = out
	}
	return changed, nil
}

// stripSecureCookies drops the Secure attribute from every Set-Cookie
// value so the browser keeps sending the cookie over plaintext.
func stripSecureCookies(h http.Header) (int, error) {
	values := h.Values("Set-Cookie")
	changed := 0
	out := make([]string, len(values))
	for i, v := range values {
		if !validText(v) {
			return 0, common.NewError(common.ErrHeaderEncoding, "Set-Cookie", nil)
		}
		s, err := secureAttr.Replace(v, "", -1, -1)
		if err != nil {
			return 0, common.NewError(common.ErrHeaderEncoding, "Set-Cookie", err)
		}
		out[i] = s
		if s != v {
			changed++
		}
	}
	if changed > 0 {
		h["Set-Cookie"] = out
	}
	return changed, nil
}

func validText(v string) bool {
	return utf8.ValidString(v) && httpguts.ValidHeaderFieldValue(v)
}
