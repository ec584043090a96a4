// Package pagepath canonicalizes page targets: the site-relative path and
// query naming a page, as accepted by the WebSocket transport, the static
// exporter and the render command.
package pagepath

import (
	"errors"
	"net/url"
	"strings"
)

// Target errors.
var (
	ErrNotSiteRelative = errors.New("pagepath: target must start with / and name no host")
	ErrBackslash       = errors.New("pagepath: target contains a backslash")
	ErrNullByte        = errors.New("pagepath: target contains a null byte")
	ErrBadEscape       = errors.New("pagepath: invalid percent escape")
	ErrEscapesRoot     = errors.New("pagepath: target escapes the site root")
)

// Target is a canonical page target.
type Target struct {
	// Path is the canonical path, still percent-encoded. It starts with
	// "/" and has no trailing slash unless it is the root.
	Path string

	// Query is the raw query without the leading "?".
	Query string
}

// Parse canonicalizes input:
//
//	/blog//post/    -> /blog/post
//	/blog/./post    -> /blog/post
//	/blog/../about  -> /about
//	/search?q=x#top -> /search?q=x
//
// It rejects absolute URLs, protocol-relative and relative paths,
// backslashes, null bytes, malformed escapes and ".." above the root.
func Parse(input string) (Target, error) {
	input, _, _ = strings.Cut(input, "#")
	p, query, _ := strings.Cut(input, "?")

	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") {
		return Target{}, ErrNotSiteRelative
	}
	if strings.Contains(p, `\`) {
		return Target{}, ErrBackslash
	}
	if strings.Contains(p, "\x00") || strings.Contains(strings.ToUpper(p), "%00") {
		return Target{}, ErrNullByte
	}
	if strings.Contains(p, "%") && !validEscapes(p) {
		return Target{}, ErrBadEscape
	}

	var segments []string
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return Target{}, ErrEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}
	return Target{Path: "/" + strings.Join(segments, "/"), Query: query}, nil
}

// String returns the target as a request URI.
func (t Target) String() string {
	if t.Query == "" {
		return t.Path
	}
	return t.Path + "?" + t.Query
}

// URL returns the target as a URL with an empty scheme and host.
func (t Target) URL() *url.URL {
	u := &url.URL{RawQuery: t.Query}
	u.Path, _ = url.PathUnescape(t.Path)
	if u.Path != t.Path {
		u.RawPath = t.Path
	}
	return u
}

// Segments returns the decoded path segments, nil for the root.
func (t Target) Segments() []string {
	p := strings.TrimPrefix(t.Path, "/")
	if p == "" {
		return nil
	}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i], _ = url.PathUnescape(s)
	}
	return segs
}

func validEscapes(p string) bool {
	for i := 0; i < len(p); i++ {
		if p[i] != '%' {
			continue
		}
		if i+2 >= len(p) || !isHex(p[i+1]) || !isHex(p[i+2]) {
			return false
		}
		i += 2
	}
	return true
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
