package staging

// Result carries either a value or an error, usable without an allocator.
// Unlike a bare (T, error) pair it can be staged, stored, and passed
// through generated wrapper code as a single unit.
type Result[T any] struct {
	value T
	err   error
}

// Ok returns a successful Result.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Fail returns a failed Result.
func Fail[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Get returns the value or the error. Failures are always surfaced; a
// failed Result's value is the zero value.
func (r Result[T]) Get() (T, error) {
	return r.value, r.err
}

// IsOK reports whether the Result holds a value.
func (r Result[T]) IsOK() bool { return r.err == nil }

// Err returns the error, nil on success.
func (r Result[T]) Err() error { return r.err }
