package cell

import "reflect"

// Same reports whether a and b are the same value by identity.
//
// Comparable values are compared with ==, which for pointers, channels and
// interfaces holding them means reference identity. Slices are the same when
// they share a backing array start and length; maps and funcs when they share
// a pointer. Same never panics, including for structs whose dynamic contents
// are not comparable; such values are never the same.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}

	switch ta.Kind() {
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Func:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}

	if !ta.Comparable() {
		return false
	}
	return safeEqual(a, b)
}

// safeEqual compares with == and treats a runtime comparison panic (an
// interface field holding an uncomparable value) as "not equal".
func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
