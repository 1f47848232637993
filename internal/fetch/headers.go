package fetch

import (
	"maps"
	"net/http"
)

// DefaultHeaders returns the browser impersonation header set sent with every
// request. Referer and Origin are pinned to the site the segments are served
// for; callers replace them through configuration when targeting another host.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Accept":          "*/*",
		"Accept-Language": "de,en-US;q=0.9,en;q=0.8",
		"Referer":         "https://hotleaks.tv/",
		"Origin":          "https://hotleaks.tv",
		"Connection":      "keep-alive",
		"Pragma":          "no-cache",
		"Cache-Control":   "no-cache",
		"Sec-Fetch-Dest":  "empty",
		"Sec-Fetch-Mode":  "cors",
		"Sec-Fetch-Site":  "cross-site",
	}
}

// MergeHeaders overlays overrides onto base. An empty override value deletes
// the header.
func MergeHeaders(base, overrides map[string]string) map[string]string {
	merged := maps.Clone(base)
	if merged == nil {
		merged = make(map[string]string, len(overrides))
	}
	for name, value := range overrides {
		canonical := http.CanonicalHeaderKey(name)
		for existing := range merged {
			if http.CanonicalHeaderKey(existing) == canonical {
				delete(merged, existing)
			}
		}
		if value != "" {
			merged[canonical] = value
		}
	}
	return merged
}

// headerTransport sets a fixed header map on every outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers http.Header
}

func newHeaderTransport(base http.RoundTripper, headers map[string]string) *headerTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	h := make(http.Header, len(headers))
	for name, value := range headers {
		h.Set(name, value)
	}
	return &headerTransport{base: base, headers: h}
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	for name, values := range t.headers {
		clone.Header[name] = append([]string(nil), values...)
	}
	return t.base.RoundTrip(clone)
}
