//go:build debug

package assert

import "fmt"

// Enabled reports whether assertions are compiled in.
const Enabled = true

// Assert panics with the formatted message if test is false.
func Assert(test bool, format string, args ...interface{}) {
	if !test {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
