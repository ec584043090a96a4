package server

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/vango-dev/spanrender/pkg/html"
)

// NoStreamParam is the query parameter that forces a buffered response.
const NoStreamParam = "__nostream"

// botPattern matches user agents of crawlers, link unfurlers and command
// line clients. They get buffered pages since most of them do not run the
// reconciler.
var botPattern = regexp.MustCompile(`(?i)(bot|crawl|spider|slurp|archiver|facebookexternalhit|embedly|quora link preview|whatsapp|lighthouse|headlesschrome|^curl/|^wget/|python-requests|go-http-client)`)

// IsBot reports whether ua looks like an automated client.
func IsBot(ua string) bool {
	return ua != "" && botPattern.MatchString(ua)
}

// Streams reports whether t is sent as a stream for r. Streaming needs
// streaming enabled in the config, at least one async value in t, no
// NoStreamParam in the query and a client that is not a bot.
func (s *Server) Streams(r *http.Request, t *html.Template) bool {
	if !s.config.Streaming || !t.HasAsync() {
		return false
	}
	if noStream(r) {
		return false
	}
	return !IsBot(r.UserAgent())
}

// noStream reports whether the request opted out of streaming. The bare
// parameter opts out; "0" and "false" keep streaming on.
func noStream(r *http.Request) bool {
	values, ok := r.URL.Query()[NoStreamParam]
	if !ok {
		return false
	}
	if len(values) == 0 {
		return true
	}
	switch strings.ToLower(values[0]) {
	case "0", "false":
		return false
	}
	return true
}
