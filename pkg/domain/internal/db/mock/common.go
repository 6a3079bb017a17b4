// Package mocks has shared plumbing for hand-written database mocks.
package mocks

// CallLog records arguments passed to a mocked method, call by call.
type CallLog[T any] []T

func (l CallLog[T]) Times() uint {
	return uint(len(l))
}

// Last returns the arguments of the most recent call, if any.
func (l CallLog[T]) Last() (T, bool) {
	if len(l) == 0 {
		var zero T
		return zero, false
	}
	return l[len(l)-1], true
}
