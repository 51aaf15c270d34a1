// Package result provides the two-armed outcome value returned by every
// client operation.
package result

import (
	"errors"
	"fmt"

	apperrors "github.com/Skryldev/image-client/errors"
)

// Error is the failure arm of a Result.
type Error struct {
	Message string
	Cause   error // may be nil
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Cause }

// Result holds either data or an *Error, never both. The zero value is a
// success carrying the zero T.
type Result[T any] struct {
	data T
	err  *Error
}

// Success wraps data.
func Success[T any](data T) Result[T] {
	return Result[T]{data: data}
}

// Failure builds the error arm.
func Failure[T any](message string, cause error) Result[T] {
	return Result[T]{err: &Error{Message: message, Cause: cause}}
}

// FromError builds the error arm from err, using apperrors.Describe for the
// message. A nil err yields a failure with an empty-input cause.
func FromError[T any](err error) Result[T] {
	if err == nil {
		err = apperrors.ErrEmptyInput
	}
	var re *Error
	if errors.As(err, &re) {
		return Result[T]{err: re}
	}
	return Failure[T](apperrors.Describe(err), err)
}

func (r Result[T]) IsSuccess() bool { return r.err == nil }

func (r Result[T]) IsError() bool { return r.err != nil }

// Value returns the data and true on success, the zero T and false otherwise.
func (r Result[T]) Value() (T, bool) {
	if r.err != nil {
		var zero T
		return zero, false
	}
	return r.data, true
}

// GetOrDefault returns the data on success and def otherwise.
func (r Result[T]) GetOrDefault(def T) T {
	if r.err != nil {
		return def
	}
	return r.data
}

// Err returns the failure arm as an error, or nil on success.
func (r Result[T]) Err() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// Message returns the failure message, or "" on success.
func (r Result[T]) Message() string {
	if r.err == nil {
		return ""
	}
	return r.err.Message
}

// Cause returns the underlying fault, or nil.
func (r Result[T]) Cause() error {
	if r.err == nil {
		return nil
	}
	return r.err.Cause
}

// Unwrap converts the Result into Go's (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.data, nil
}

// OnSuccess calls fn with the data when r is a success and returns r.
func (r Result[T]) OnSuccess(fn func(T)) Result[T] {
	if r.err == nil && fn != nil {
		fn(r.data)
	}
	return r
}

// OnError calls fn with the failure when r is an error and returns r.
func (r Result[T]) OnError(fn func(*Error)) Result[T] {
	if r.err != nil && fn != nil {
		fn(r.err)
	}
	return r
}

// Map applies fn to the data of a success. Errors pass through with the same
// message and cause. A panic in fn becomes an error instead of propagating.
func Map[T, U any](r Result[T], fn func(T) U) (out Result[U]) {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	defer func() {
		if p := recover(); p != nil {
			out = Failure[U](fmt.Sprintf("map: %v", p), fmt.Errorf("panic: %v", p))
		}
	}()
	return Success(fn(r.data))
}

// FlatMap chains an operation that itself returns a Result.
func FlatMap[T, U any](r Result[T], fn func(T) Result[U]) (out Result[U]) {
	if r.err != nil {
		return Result[U]{err: r.err}
	}
	defer func() {
		if p := recover(); p != nil {
			out = Failure[U](fmt.Sprintf("flatmap: %v", p), fmt.Errorf("panic: %v", p))
		}
	}()
	return fn(r.data)
}

// Match folds r into a single value, calling exactly one of the two arms.
func Match[T, R any](r Result[T], onSuccess func(T) R, onError func(*Error) R) R {
	if r.err != nil {
		return onError(r.err)
	}
	return onSuccess(r.data)
}
