// Package reconcile threads streamed content chunks back into their
// placeholders.
//
// A Reconciler observes a dom.Document. When a content template
// (<template id="{slot}_content" data-hs-content>) appears, it waits until
// both the slot's placeholder and the template's closing <!--end--> marker
// are present, then morphs the content into the placeholder, removes the
// placeholder wrapper, the boot script and the template, and activates
// behaviors on the new nodes. Waiting is bounded by a timeout; a slot that
// times out is left showing its loading markup and reported as a
// *TimeoutError.
//
// Loader drives a Reconciler from a chunk stream, parsing the markup the
// way a browser would receive it. It is what the package tests use to check
// that a streamed page ends up identical to its buffered render.
//
// The browser runtime in client/dist/streaming.js implements the same
// algorithm against the real DOM.
package reconcile
