package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

const docBase = "https://spanrender.dev/docs/errors/"

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Composition Errors (E100-E109)
	// ============================================

	"E101": {
		Category:   CategoryComposition,
		Message:    "Template arity mismatch",
		Detail:     "The number of literal fragments must be one more than the number of interpolated values.",
		Suggestion: "Check that every %v in the format has exactly one matching value",
		DocURL:     docBase + "E101",
	},
	"E102": {
		Category:   CategoryComposition,
		Message:    "Raw HTML from a non-string value",
		Detail:     "Only strings can be marked as trusted markup. Other values must be rendered through a template so they are escaped.",
		Suggestion: "Convert the value to a string first, or interpolate it without html.Raw",
		DocURL:     docBase + "E102",
	},
	"E103": {
		Category:   CategoryComposition,
		Message:    "Unsupported template value",
		Detail:     "Templates accept strings, numbers, booleans, nil, RawHTML, nested templates, slices of those, and async values.",
		Suggestion: "Render maps and structs into a nested template before interpolating them",
		DocURL:     docBase + "E103",
	},

	// ============================================
	// Render Errors (E110-E129)
	// ============================================

	"E110": {
		Category:   CategoryRender,
		Message:    "Unresolved async value in synchronous render",
		Detail:     "render.Render cannot wait for asynchronous content.",
		Suggestion: "Use render.RenderAsync or render.RenderStream for templates with pending async values",
		DocURL:     docBase + "E110",
	},
	"E120": {
		Category: CategoryRender,
		Message:  "Buffered render failed",
		Detail:   "An async value was rejected while rendering the whole page. No partial output is produced; an error page can still be sent.",
		DocURL:   docBase + "E120",
	},

	// ============================================
	// Stream Errors (E130-E139)
	// ============================================

	"E130": {
		Category: CategoryStream,
		Message:  "Async slot failed while streaming",
		Detail:   "The slot was rendered as an inline error fragment. The rest of the page was not affected; the HTTP status could not be changed because the response had already started.",
		DocURL:   docBase + "E130",
	},

	// ============================================
	// Reconcile Errors (E140-E149)
	// ============================================

	"E140": {
		Category:   CategoryReconcile,
		Message:    "Timed out reconciling streamed content",
		Detail:     "A placeholder or the end marker of its content never appeared. The region stays in its loading state.",
		Suggestion: "Check that the response was not truncated and that the slot id prefix is unique in the document",
		DocURL:     docBase + "E140",
	},

	// ============================================
	// Server Errors (E150-E159)
	// ============================================

	"E150": {
		Category:   CategoryServer,
		Message:    "Route handler panicked",
		Detail:     "The panic was recovered and answered with the error page.",
		Suggestion: "Return an error from the handler instead of panicking",
		DocURL:     docBase + "E150",
	},
	"E151": {
		Category:   CategoryServer,
		Message:    "Unsupported route result",
		Detail:     "Route handlers may return *html.Template, html.RawHTML, string, http.Handler or nil.",
		Suggestion: "Wrap other values in a template with html.HTML",
		DocURL:     docBase + "E151",
	},

	// ============================================
	// Transport Errors (E160-E169)
	// ============================================

	"E160": {
		Category: CategoryTransport,
		Message:  "Stream write failed",
		Detail:   "The downstream connection closed before the stream completed. Remaining chunks were discarded.",
		DocURL:   docBase + "E160",
	},

	// ============================================
	// Config Errors (E170-E179)
	// ============================================

	"E170": {
		Category:   CategoryConfig,
		Message:    "Config file not found",
		Suggestion: "Create spanrender.json or pass --config",
		DocURL:     docBase + "E170",
	},
	"E171": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		DocURL:   docBase + "E171",
	},

	// ============================================
	// Export Errors (E180-E189)
	// ============================================

	"E180": {
		Category:   CategoryExport,
		Message:    "Static export failed",
		Detail:     "A route could not be rendered or its output could not be published. Pages published before the failure are kept.",
		Suggestion: "Run the failing route with `spanrender render` to see the render error",
		DocURL:     docBase + "E180",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
