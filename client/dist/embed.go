package clientdist

import _ "embed"

// StreamingJS is the browser reconciler for streamed responses.
//
// It is served at "/_hs/js/streaming.js" and only needs to load on pages
// that contain at least one placeholder.
//go:embed streaming.js
var StreamingJS []byte

// ScriptPath is the URL path the server mounts StreamingJS on.
const ScriptPath = "/_hs/js/streaming.js"

// ScriptTag returns the markup loading the reconciler. It is a blocking
// script so the reconciler observes content chunks as they stream in.
func ScriptTag() string {
	return `<script src="` + ScriptPath + `"></script>`
}
