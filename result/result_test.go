package result_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Skryldev/image-client/errors"
	"github.com/Skryldev/image-client/result"
)

func TestSuccessAccessors(t *testing.T) {
	r := result.Success(42)

	assert.True(t, r.IsSuccess())
	assert.False(t, r.IsError())
	v, ok := r.Value()
	assert.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 42, r.GetOrDefault(7))
	assert.NoError(t, r.Err())
	assert.Empty(t, r.Message())
	assert.Nil(t, r.Cause())
}

func TestFailureAccessors(t *testing.T) {
	cause := errors.New("boom")
	r := result.Failure[int]("it broke", cause)

	assert.False(t, r.IsSuccess())
	assert.True(t, r.IsError())
	v, ok := r.Value()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.Equal(t, 7, r.GetOrDefault(7))
	assert.Equal(t, "it broke", r.Message())
	assert.Same(t, cause, r.Cause())

	_, err := r.Unwrap()
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestMapAppliesOnSuccess(t *testing.T) {
	r := result.Map(result.Success(21), func(v int) int { return v * 2 })
	v, ok := r.Value()
	require.True(t, ok)
	assert.Equal(t, 42, v)
}

func TestMapPassesErrorThroughUnchanged(t *testing.T) {
	cause := errors.New("root cause")
	in := result.Failure[int]("failed", cause)

	called := false
	out := result.Map(in, func(v int) string {
		called = true
		return "never"
	})

	assert.False(t, called)
	assert.True(t, out.IsError())
	assert.Equal(t, in.Message(), out.Message())
	assert.Same(t, cause, out.Cause())
	assert.Same(t, in.Err(), out.Err(), "the same *Error value is carried, not a copy")
}

func TestMapRecoversPanic(t *testing.T) {
	out := result.Map(result.Success(1), func(int) int { panic("bad mapper") })
	require.True(t, out.IsError())
	assert.Contains(t, out.Message(), "bad mapper")
}

func TestFlatMapChains(t *testing.T) {
	half := func(v int) result.Result[int] {
		if v%2 != 0 {
			return result.Failure[int]("odd", nil)
		}
		return result.Success(v / 2)
	}

	assert.Equal(t, 5, result.FlatMap(result.Success(10), half).GetOrDefault(0))
	assert.Equal(t, "odd", result.FlatMap(result.Success(3), half).Message())
}

func TestOnSuccessOnErrorReturnReceiver(t *testing.T) {
	var seen []string

	ok := result.Success("x").
		OnSuccess(func(s string) { seen = append(seen, "success:"+s) }).
		OnError(func(*result.Error) { seen = append(seen, "error") })
	assert.Equal(t, "x", ok.GetOrDefault(""))

	bad := result.Failure[string]("nope", nil).
		OnSuccess(func(string) { seen = append(seen, "success") }).
		OnError(func(e *result.Error) { seen = append(seen, "error:"+e.Message) })
	assert.Equal(t, "nope", bad.Message())

	assert.Equal(t, []string{"success:x", "error:nope"}, seen)
}

func TestMatchIsExhaustive(t *testing.T) {
	describe := func(r result.Result[int]) string {
		return result.Match(r,
			func(v int) string { return "value" },
			func(e *result.Error) string { return "error: " + e.Message },
		)
	}
	assert.Equal(t, "value", describe(result.Success(1)))
	assert.Equal(t, "error: x", describe(result.Failure[int]("x", nil)))
}

func TestFromErrorUsesBestMessage(t *testing.T) {
	apiErr := apperrors.NewAPIError(400, []apperrors.APIErrorEntry{{Code: 5400, Message: "Bad image"}})
	r := result.FromError[int](apperrors.New(apperrors.CategoryAPI, "upload", apiErr))

	assert.Equal(t, "Bad image", r.Message())
	var got *apperrors.APIError
	require.ErrorAs(t, r.Err(), &got)
	assert.Equal(t, []int{5400}, got.Codes())
}

func TestFromErrorReusesResultError(t *testing.T) {
	first := result.Failure[int]("original", errors.New("c"))
	second := result.FromError[string](first.Err())
	assert.Same(t, first.Err(), second.Err())
}

func TestFutureDeliversResult(t *testing.T) {
	f := result.Go(context.Background(), func(context.Context) result.Result[int] {
		return result.Success(9)
	})
	r, err := f.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, r.GetOrDefault(0))
}

func TestFutureCancelledDeliversNoResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	f := result.Go(ctx, func(ctx context.Context) result.Result[int] {
		close(started)
		<-ctx.Done()
		return result.Failure[int]("aborted", ctx.Err())
	})
	<-started
	cancel()

	r, err := f.Await(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, r.IsError(), "no result is delivered for a cancelled call")

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("worker did not observe cancellation")
	}
}
