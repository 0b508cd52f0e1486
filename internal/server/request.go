package server

import (
	"errors"
	"net/url"
	"strings"
)

// maxRequestLine bounds the first line of a request, terminator included.
const maxRequestLine = 4000

var errMalformed = errors.New("malformed request")

type request struct {
	method  string
	path    string // decoded, query stripped, always starts with "/"
	rawPath string // as sent, query stripped; safe to echo in headers
	version string
}

// newRequest validates the request line fields parsed by fasthttp.
func newRequest(method, uri, proto []byte) (*request, error) {
	if len(method)+len(uri)+len(proto)+len("  \r\n") > maxRequestLine {
		return nil, errMalformed
	}
	version := string(proto)
	if len(method) == 0 || version != "HTTP/1.0" && version != "HTTP/1.1" {
		return nil, errMalformed
	}

	path, raw, err := parseTarget(string(uri))
	if err != nil {
		return nil, err
	}
	return &request{method: string(method), path: path, rawPath: raw, version: version}, nil
}

// parseTarget accepts an origin-form target and returns its decoded and raw path.
// Control bytes are refused both raw and after decoding.
func parseTarget(target string) (path, raw string, err error) {
	if !strings.HasPrefix(target, "/") || hasControl(target) {
		return "", "", errMalformed
	}

	raw = target
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}
	path, err = url.PathUnescape(raw)
	if err != nil || hasControl(path) {
		return "", "", errMalformed
	}
	return path, raw, nil
}

func hasControl(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c == 0x7f {
			return true
		}
	}
	return false
}
