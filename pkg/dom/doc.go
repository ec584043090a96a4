// Package dom is a small DOM over golang.org/x/net/html nodes: enough
// document, mutation observation, behavior binding and morphing to run the
// streaming reconciler outside a browser.
//
// All reads go through View and all writes through Mutate, which hold the
// document lock. Subscribers receive the mutation records of each Mutate
// call after the lock is released, in order, one batch at a time, so a
// subscriber may itself call Mutate.
//
// Content of <template> elements is inert: GetElementByID and Scan do not
// look inside templates, matching how browsers keep template content in a
// separate fragment.
package dom
