// Package html is the template model of spanrender.
//
// A Template is an immutable sequence of literal markup and interpolated
// values. Literal markup is trusted as written; interpolated values go
// through the escaping engine:
//
//   - strings, numbers, booleans and fmt.Stringers are HTML-escaped
//   - nil and nil pointers render as the empty string
//   - RawHTML (see Raw) and nested *Template values are emitted verbatim
//   - slices and arrays are flattened depth-first with no separator
//   - *Async values are resolved later by a renderer
//
// # Building Templates
//
// Parse and HTML take a format string in which every %v marks one
// interpolation and %% is a literal percent sign:
//
//	items := []any{}
//	for _, name := range names {
//	    items = append(items, html.HTML("<li>%v</li>", name))
//	}
//	page := html.HTML("<ul>%v</ul>", items)
//
// New is the lower level constructor taking the literal fragments and
// values separately, the same shape as a tagged template literal.
//
// # Async Values
//
// Defer wraps a function whose result is rendered when it becomes
// available. The function runs at most once; its result may itself be a
// template containing further async values:
//
//	comments := html.Defer(func(ctx context.Context) (any, error) {
//	    list, err := store.Comments(ctx, postID)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return commentList(list), nil
//	}).WithLoading(html.Raw(`<p class="skeleton">Loading…</p>`))
//
// A Template is consumed by one render. Async values settle only once, so
// a template rendered a second time reuses the first results.
//
// The renderers live in package render; this package only defines the
// model and the single traversal (Walk) both of them share.
package html
