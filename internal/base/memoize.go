package base

import "sync"

// Memoize runs fn at most once and caches its result. Used so a
// compiler's --version probe (toolchain.queryVersion) runs at most once
// per executable path.
func Memoize[T any](fn func() T) func() T {
	var (
		once     sync.Once
		memoized T
	)
	return func() T {
		once.Do(func() { memoized = fn() })
		return memoized
	}
}
