package timing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

const (
	timingEndpoint   = "web.timingapp.com"
	timingAPIVersion = "v1"
)

var repeatedSlashes = regexp.MustCompile(`/{2,}`)

// pathJoin joins URL segments with a single "/". Leading and trailing slashes
// of every segment are dropped and repeated slashes collapsed, except for the
// "//" following a scheme in the first segment.
func pathJoin(segments ...string) string {
	scheme := ""
	parts := make([]string, 0, len(segments))

	for i, s := range segments {
		if i == 0 {
			if idx := strings.Index(s, "://"); idx >= 0 {
				scheme, s = s[:idx+3], s[idx+3:]
			}
		}
		s = strings.Trim(s, "/")
		if s != "" {
			parts = append(parts, s)
		}
	}

	return scheme + repeatedSlashes.ReplaceAllString(strings.Join(parts, "/"), "/")
}

// buildURL assembles the absolute API URL for requestPath. A non-empty
// rawQuery is appended after "?".
func buildURL(requestPath, rawQuery string) string {
	url := "https://" + pathJoin(timingEndpoint, "api", timingAPIVersion, requestPath)
	if rawQuery != "" {
		url += "?" + rawQuery
	}
	return url
}

func (r *Repository) headers() http.Header {
	h := make(http.Header, 4)
	h.Set("Authorization", "Bearer "+r.token)
	h.Set("Accept", "application/json")
	h.Set("Accept-Encoding", "gzip")
	h.Set("Content-Type", "application/json")
	return h
}

// newRequest builds the request for method and requestPath. query is encoded
// with encodeQuery, body is serialized as JSON unless nil.
func (r *Repository) newRequest(method, requestPath string, query any, body any) (*Request, error) {
	rawQuery, err := encodeQuery(query)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}

	req := &Request{
		Method: method,
		URL:    buildURL(requestPath, rawQuery),
		Header: r.headers(),
	}

	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		req.Body = data
	}

	return req, nil
}
