package util

// AssertNoError panics if err is non-nil. Used only at call sites where the
// underlying operation is documented to never fail (e.g. writes into a
// hash.Hash), so a non-nil error indicates a violated assumption rather than
// a recoverable condition.
func AssertNoError(err error) {
	if err != nil {
		panic(err)
	}
}

// Ptr returns a pointer to a copy of v, for taking the address of a value
// that isn't already addressable (e.g. a function's return value).
func Ptr[T any](v T) *T {
	return &v
}
