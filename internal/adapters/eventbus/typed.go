package eventbus

import (
	"NoticeBoard/internal/core/ports"
	"fmt"
	"reflect"
)

// PayloadTypeError is raised by a Typed handler that received a payload of
// the wrong type.
type PayloadTypeError struct {
	Event string
	Want  string
	Got   any
}

func (e *PayloadTypeError) Error() string {
	return fmt.Sprintf("event %q: payload %T is not %s", e.Event, e.Got, e.Want)
}

// Typed adapts fn into a ports.Handler that only accepts payloads of type T.
// A nil payload is accepted as the zero value when T is an interface type.
// Any other payload panics with a *PayloadTypeError, which the registry
// reports as a handler failure.
func Typed[T any](fn func(name string, payload T)) ports.Handler {
	want := reflect.TypeOf((*T)(nil)).Elem()
	nilable := want.Kind() == reflect.Interface

	return func(name string, payload any) {
		if payload == nil && nilable {
			var zero T
			fn(name, zero)
			return
		}
		v, ok := payload.(T)
		if !ok {
			panic(&PayloadTypeError{Event: name, Want: want.String(), Got: payload})
		}
		fn(name, v)
	}
}
