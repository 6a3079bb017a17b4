package cmp

// a == b as BiPredicator function
func EqEq[T comparable](a, b T) bool {
	return a == b
}

// *a == *b as BiPredicator function.
//
// nils are equal only to each other.
func PEqEq[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func PEqualWith[T any](a, b *T, pred func(T, T) bool) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return pred(*a, *b)
}

func SliceEq[T comparable](a []T, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for nth, va := range a {
		if va != b[nth] {
			return false
		}
	}
	return true
}

func SliceEqWith[T any, U any](a []T, b []U, pred func(a T, b U) bool) bool {
	if len(a) != len(b) {
		return false
	}

	for nth := range a {
		if !pred(a[nth], b[nth]) {
			return false
		}
	}

	return true
}

// Check A ⊇ B in some equivarency. Ordering does not matter.
//
// When we can select an equivarent element in A for each element in B
// (using each at most once), it returns true.
func SliceSubsetWith[A, B any](a []A, b []B, pred func(A, B) bool) bool {
	if len(b) == 0 {
		return true
	}

	if len(a) < len(b) {
		return false
	}

	rest := make([]*A, len(a))
	for i := range a {
		rest[i] = &a[i]
	}

NEXT_B:
	for _, be := range b {
		for i, ae := range rest {
			if !pred(*ae, be) {
				continue
			}
			// drop i-th element, since it is used.
			rest = append(rest[:i], rest[i+1:]...)
			continue NEXT_B
		}
		return false
	}
	return true
}

// true when a and b have the same elements, ignoring ordering.
func SliceContentEq[T comparable](a []T, b []T) bool {
	return SliceContentEqWith(a, b, EqEq[T])
}

func SliceContentEqWith[A, B any](a []A, b []B, pred func(A, B) bool) bool {
	return len(a) == len(b) && SliceSubsetWith(a, b, pred)
}

func MapEq[K, V comparable](a, b map[K]V) bool {
	return MapEqWith(a, b, EqEq[V])
}

func MapEqWith[K comparable, V any](a, b map[K]V, pred func(V, V) bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, va := range a {
		vb, ok := b[k]
		if !ok || !pred(va, vb) {
			return false
		}
	}
	return true
}

// jsonNull reports whether v marshals to JSON null.
// Nil maps and nil slices do, empty ones do not.
func jsonNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		return t == nil
	case []any:
		return t == nil
	}
	return false
}

// JsonEq compares decoded JSON values deeply.
//
// Values from encoding/json (map[string]any, []any and scalars) are compared
// structurally, everything else with ==. Values marshalling to the same JSON
// are equal, so a nil map and a nil interface both count as null.
func JsonEq(a, b any) bool {
	if jsonNull(a) || jsonNull(b) {
		return jsonNull(a) && jsonNull(b)
	}
	switch va := a.(type) {
	case map[string]any:
		vb, ok := b.(map[string]any)
		return ok && MapEqWith(va, vb, JsonEq)
	case []any:
		vb, ok := b.([]any)
		return ok && SliceEqWith(va, vb, JsonEq)
	default:
		return a == b
	}
}
