// Package opt provides an explicit present/absent wrapper.
//
// Option is used wherever absence is a legitimate state rather than an
// error, most notably as the value of a nesting's inner cell:
//
//	o := opt.Some(42)
//	if v, ok := o.Get(); ok {
//	    fmt.Println(v)
//	}
//
// The zero Option is absent.
package opt

import "fmt"

// Option holds either a value or nothing.
type Option[T any] struct {
	value   T
	present bool
}

// Some returns a present Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, present: true}
}

// None returns an absent Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the held value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsPresent reports whether a value is held.
func (o Option[T]) IsPresent() bool {
	return o.present
}

// OrElse returns the held value, or fallback when absent.
func (o Option[T]) OrElse(fallback T) T {
	if o.present {
		return o.value
	}
	return fallback
}

// MustGet returns the held value and panics when absent.
func (o Option[T]) MustGet() T {
	if !o.present {
		panic("opt: MustGet on absent option")
	}
	return o.value
}

// String implements fmt.Stringer.
func (o Option[T]) String() string {
	if !o.present {
		return "None"
	}
	return fmt.Sprintf("Some(%v)", o.value)
}
