package base

import "fmt"

// Assert panics on an invariant violation. Reserved for internal
// consistency checks (sorted file sets, valid digests) that should
// never fail outside of a programming error.
func Assert(pred func() bool) {
	if !pred() {
		panic("assertion failed")
	}
}

func UnexpectedValue(value interface{}) {
	panic(fmt.Sprintf("unexpected value: %v", value))
}
func UnexpectedValuePanic(context, value interface{}) {
	panic(fmt.Sprintf("unexpected value %v in context %v", value, context))
}
