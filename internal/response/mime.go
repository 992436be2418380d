package response

import "strings"

// MimeList is the set of media types whose bodies are rewritten. Matching is
// case-insensitive and ignores parameters.
type MimeList struct {
	types []string
}

func NewMimeList(types []string) MimeList {
	m := MimeList{types: make([]string, 0, len(types))}
	for _, t := range types {
		if t = MediaType(t); t != "" {
			m.types = append(m.types, t)
		}
	}
	return m
}

// Allows reports whether a Content-Type header value is eligible. An empty
// value never is.
func (m MimeList) Allows(contentType string) bool {
	mt := MediaType(contentType)
	if mt == "" {
		return false
	}
	for _, t := range m.types {
		if t == mt {
			return true
		}
	}
	return false
}

func (m MimeList) Types() []string {
	return append([]string(nil), m.types...)
}

// MediaType strips everything from the first ';' and lowercases the rest.
func MediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
