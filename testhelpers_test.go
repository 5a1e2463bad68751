package tl

import "github.com/google/go-cmp/cmp"

// valueComparer drives go-cmp's walk of a Value tree through the same
// field comparisons reflect.DeepEqual would get wrong: time.Time's
// monotonic reading on KindDate, and the unexported fields cmp otherwise
// refuses to touch.
var valueComparer cmp.Option

func init() {
	valueComparer = cmp.Comparer(func(a, b Value) bool {
		if a.kind != b.kind {
			return false
		}
		switch a.kind {
		case KindNull:
			return true
		case KindBool:
			return a.b == b.b
		case KindInt:
			return a.i == b.i
		case KindUint:
			return a.u == b.u
		case KindFloat32:
			return a.f32 == b.f32
		case KindFloat64:
			return a.f64 == b.f64
		case KindDate:
			return a.t.Equal(b.t)
		case KindBytes:
			return string(a.bs) == string(b.bs)
		case KindString:
			return a.s == b.s
		case KindVector:
			return cmp.Equal(a.vec, b.vec, valueComparer)
		case KindMap:
			return cmp.Equal(a.m, b.m, valueComparer)
		case KindCustom:
			return a.custom == b.custom
		}
		return false
	})
}

// valueEqual is a structural equality check for round-trip tests.
func valueEqual(a, b Value) bool {
	return cmp.Equal(a, b, valueComparer)
}

// valueDiff renders a human-readable diff for a failed valueEqual check.
func valueDiff(a, b Value) string {
	return cmp.Diff(a, b, valueComparer)
}
