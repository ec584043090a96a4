package html

import (
	"context"
	"errors"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeferRunsOnce(t *testing.T) {
	var calls atomic.Int32
	a := Defer(func(context.Context) (any, error) {
		calls.Add(1)
		return "v", nil
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		v, err := a.Await(ctx)
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	}
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, a.Done())
}

func TestDeferDoesNotStartUntilAsked(t *testing.T) {
	started := make(chan struct{}, 1)
	a := Defer(func(context.Context) (any, error) {
		started <- struct{}{}
		return nil, nil
	})

	select {
	case <-started:
		t.Fatal("function ran before Start")
	case <-time.After(20 * time.Millisecond):
	}

	a.Start(context.Background())
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("function did not run after Start")
	}
}

func TestResolveAndReject(t *testing.T) {
	ctx := context.Background()

	r := Resolve(5)
	assert.True(t, r.Done())
	v, err := r.Await(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", v)

	boom := errors.New("boom")
	j := Reject(boom)
	_, err = j.Await(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestAsyncPanicBecomesError(t *testing.T) {
	a := Defer(func(context.Context) (any, error) {
		panic("kaboom")
	})

	_, err := a.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestAsyncFlattensNestedAsync(t *testing.T) {
	inner := Defer(func(context.Context) (any, error) { return HTML("<b>%v</b>", "in"), nil })
	outer := Defer(func(context.Context) (any, error) { return inner, nil })

	v, err := outer.Await(context.Background())
	require.NoError(t, err)
	tpl, ok := v.(*Template)
	require.True(t, ok)
	assert.Equal(t, "<b>in</b>", tpl.String())
}

func TestAsyncRejectsUnsupportedResult(t *testing.T) {
	a := Defer(func(context.Context) (any, error) { return map[string]int{}, nil })
	_, err := a.Await(context.Background())

	var ce *CompositionError
	assert.ErrorAs(t, err, &ce)
}

func TestAwaitHonorsContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	a := Defer(func(context.Context) (any, error) {
		<-release
		return nil, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := a.Await(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, a.Done())
}

func TestNilFunction(t *testing.T) {
	_, err := Defer(nil).Await(context.Background())
	assert.ErrorIs(t, err, ErrNilAsync)
}

func TestWithLoadingSharesResult(t *testing.T) {
	var calls atomic.Int32
	a := Defer(func(context.Context) (any, error) {
		calls.Add(1)
		return "x", nil
	})
	b := a.WithLoading(HTML("<i>%v</i>", "loading"))

	assert.Nil(t, a.Loading())
	assert.Equal(t, "<i>loading</i>", b.Loading().(*Template).String())

	_, _ = b.Await(context.Background())
	_, _ = a.Await(context.Background())
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithLoadingRejectsAsyncLoading(t *testing.T) {
	assert.Panics(t, func() {
		Resolve(1).WithLoading(Resolve(2))
	})
}

func TestResultBeforeSettled(t *testing.T) {
	a := Defer(func(context.Context) (any, error) { return 1, nil })
	v, err := a.Result()
	assert.Nil(t, v)
	assert.NoError(t, err)
}

type panickyStringer struct{}

func (panickyStringer) String() string { panic("stringer exploded") }

func TestAsyncTypedNilResultIsEmpty(t *testing.T) {
	a := Defer(func(context.Context) (any, error) {
		var u *url.URL
		return u, nil
	})

	v, err := a.Await(context.Background())
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestAsyncPanickingResultBecomesError(t *testing.T) {
	a := Defer(func(context.Context) (any, error) { return panickyStringer{}, nil })

	_, err := a.Await(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stringer exploded")
}
