package domain

// Result is the uniform shape returned across the gateway boundary: either
// Success with a Value, or a failure carrying Err.
type Result[T any] struct {
	Success bool
	Value   T
	Err     error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{Success: true, Value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Unwrap returns the value and error in Go's usual order.
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}
