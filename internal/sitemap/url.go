package sitemap

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultFilename is used when the input names no sitemap file.
const DefaultFilename = "sitemap.xml"

// NormalizeURL converts arbitrary user input into scheme://host/filename.
// A missing scheme becomes http, a missing host is taken from the first path
// segment, and the first segment after the host names the sitemap file.
// Query strings and fragments are dropped and percent-escapes are kept as
// written. Userinfo is dropped. It never fails: input that cannot be parsed
// is treated as a bare path and yields a best-effort URL.
func NormalizeURL(raw string) string {
	var path string
	u, err := url.Parse(raw)
	if err != nil {
		u = &url.URL{}
		path = stripQueryAndFragment(raw)
	} else {
		path = u.EscapedPath()
		// "host:port" without a scheme parses as scheme "host" with an
		// opaque remainder; treat the remainder as the path.
		if path == "" && u.Opaque != "" {
			path = u.Opaque
		}
	}

	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}

	segments := strings.Split(path, "/")
	host := u.Host
	if host == "" {
		host = segments[0]
	}

	filename := DefaultFilename
	if len(segments) > 1 && segments[1] != "" {
		filename = segments[1]
	}

	return fmt.Sprintf("%s://%s/%s", scheme, host, filename)
}

func stripQueryAndFragment(raw string) string {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i]
	}
	return raw
}
