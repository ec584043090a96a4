package html

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/panics"
)

// Async is a value that becomes available later: the Go counterpart of a
// promise interpolated into a template.
//
// The underlying function runs at most once, on the first call to Start or
// Await, with the context passed to that call. A panic inside it is turned
// into an error. If it returns another *Async, that one is awaited too.
type Async struct {
	p       *promise
	loading any
}

type promise struct {
	fn    func(ctx context.Context) (any, error)
	start chan struct{}
	done  chan struct{}
	value any
	err   error
}

// ErrNilAsync is the rejection of an async value with no function.
var ErrNilAsync = errors.New("html: async value has no function")

// Defer returns an async value computed by fn.
func Defer(fn func(ctx context.Context) (any, error)) *Async {
	return &Async{p: &promise{
		fn:    fn,
		start: make(chan struct{}, 1),
		done:  make(chan struct{}),
	}}
}

// Resolve returns an async value already settled with v.
func Resolve(v any) *Async {
	a := Defer(nil)
	a.p.settle(normalize(v))
	return a
}

// Reject returns an async value already settled with err.
func Reject(err error) *Async {
	a := Defer(nil)
	a.p.settle(nil, err)
	return a
}

// WithLoading returns an async value sharing a's result whose placeholder
// shows loading while the stream waits for it. loading is interpolated
// like any other template value; it panics with a *CompositionError if it
// cannot be rendered or is itself async.
func (a *Async) WithLoading(loading any) *Async {
	n, err := normalize(loading)
	if err == nil && hasAsync(n) {
		err = compositionError("E103", "loading content cannot be async", loading)
	}
	if err != nil {
		panic(locate(err, 0))
	}
	return &Async{p: a.p, loading: n}
}

// Loading returns the placeholder content set with WithLoading.
func (a *Async) Loading() any {
	return a.loading
}

// Start begins computing the value in a new goroutine unless it has
// already started or settled.
func (a *Async) Start(ctx context.Context) {
	select {
	case a.p.start <- struct{}{}:
		go a.p.run(ctx)
	default:
	}
}

// Await starts the value if needed and blocks until it settles or ctx is
// done.
func (a *Async) Await(ctx context.Context) (any, error) {
	a.Start(ctx)
	select {
	case <-a.p.done:
		return a.p.value, a.p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done reports whether the value has settled.
func (a *Async) Done() bool {
	select {
	case <-a.p.done:
		return true
	default:
		return false
	}
}

// Result returns the settled value and error. It must only be called
// after Done reports true or Await returned.
func (a *Async) Result() (any, error) {
	if !a.Done() {
		return nil, nil
	}
	return a.p.value, a.p.err
}

func (p *promise) run(ctx context.Context) {
	if p.fn == nil {
		p.settle(nil, ErrNilAsync)
		return
	}

	var (
		value any
		err   error
		pc    panics.Catcher
	)
	// normalize runs inside Try: a String or Error method may panic too,
	// and this goroutine has no other recovery.
	pc.Try(func() {
		value, err = p.fn(ctx)
		if err == nil {
			value, err = normalize(value)
		}
	})
	if r := pc.Recovered(); r != nil {
		p.settle(nil, r.AsError())
		return
	}
	if err != nil {
		p.settle(nil, err)
		return
	}
	if inner, ok := value.(*Async); ok {
		value, err = inner.Await(ctx)
	}
	p.settle(value, err)
}

// settle records the result. The start slot is filled first so a settled
// promise never runs its function.
func (p *promise) settle(v any, err error) {
	select {
	case p.start <- struct{}{}:
	default:
	}
	p.value, p.err = v, err
	close(p.done)
}
