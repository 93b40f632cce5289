package selection

import (
	"math"
	"reflect"
)

// defaultEquals reports whether b may be skipped as unchanged from a.
//
// Only scalars of the same dynamic type compare equal (NaN equals NaN),
// and nil equals nil.
// Maps, slices, pointers, structs and other composite values always count
// as changed: an Update may have edited them in place, so comparing old and
// next would compare the value with itself.
func defaultEquals[T any](a, b T) bool {
	av, bv := any(a), any(b)
	if av == nil || bv == nil {
		return av == nil && bv == nil
	}

	ra, rb := reflect.ValueOf(av), reflect.ValueOf(bv)
	if ra.Type() != rb.Type() {
		return false
	}

	switch ra.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		// Typed nils are unchanged, like untyped nil.
		return ra.IsNil() && rb.IsNil()
	case reflect.Bool:
		return ra.Bool() == rb.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ra.Int() == rb.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ra.Uint() == rb.Uint()
	case reflect.Float32, reflect.Float64:
		x, y := ra.Float(), rb.Float()
		if math.IsNaN(x) {
			return math.IsNaN(y)
		}
		return x == y
	case reflect.String:
		return ra.String() == rb.String()
	default:
		return false
	}
}
