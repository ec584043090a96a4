// Package errors provides structured, actionable error messages for spanrender.
//
// Every failure the renderer can report maps to a registered code
// (e.g. "E101") that carries a category, a short message, a longer
// explanation and a documentation link.
//
// # Error Categories
//
//   - composition: a template was built from values it cannot render
//   - render: a buffered render failed before any byte was written
//   - stream: an asynchronous slot failed after the response was flushed
//   - reconcile: the client could not place streamed content
//   - transport: the downstream connection went away mid-stream
//   - config: configuration could not be loaded or is invalid
//
// # Usage
//
// Public packages define their own error types (html.CompositionError,
// render.BufferedRenderError, ...) and expose the code through a Code
// method. Describe turns any such error into an *Error for display:
//
//	if err := rootCmd.Execute(); err != nil {
//	    errors.PrintError(errors.Describe(err))
//	}
//
//	// Output:
//	// ERROR E101: Template arity mismatch
//	//
//	//   app/routes/index.go:15
//	//
//	//   The number of literal fragments must be one more than the
//	//   number of interpolated values.
//	//
//	//   Learn more: https://spanrender.dev/docs/errors/E101
package errors
