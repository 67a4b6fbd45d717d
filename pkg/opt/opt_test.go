package opt

import "testing"

func TestOptionZeroIsAbsent(t *testing.T) {
	var o Option[int]
	if o.IsPresent() {
		t.Error("zero Option should be absent")
	}
	if _, ok := o.Get(); ok {
		t.Error("Get on zero Option should report absent")
	}
	if o.String() != "None" {
		t.Errorf("expected None, got %s", o.String())
	}
}

func TestOptionSome(t *testing.T) {
	o := Some(7)
	v, ok := o.Get()
	if !ok || v != 7 {
		t.Errorf("expected (7, true), got (%d, %v)", v, ok)
	}
	if o.OrElse(3) != 7 {
		t.Errorf("OrElse should return held value")
	}
	if o.String() != "Some(7)" {
		t.Errorf("expected Some(7), got %s", o.String())
	}
}

func TestOptionNone(t *testing.T) {
	o := None[string]()
	if o.OrElse("fallback") != "fallback" {
		t.Error("OrElse should return fallback when absent")
	}

	defer func() {
		if recover() == nil {
			t.Error("MustGet on absent option should panic")
		}
	}()
	o.MustGet()
}

func TestOptionSomeNilIsPresent(t *testing.T) {
	// Presence is orthogonal to the nil-ness of the element type.
	o := Some[*int](nil)
	if !o.IsPresent() {
		t.Error("Some(nil) should be present")
	}
}
