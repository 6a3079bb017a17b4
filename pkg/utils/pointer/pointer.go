package pointer

func Ref[T any](t T) *T {
	return &t
}

func Deref[T any](ptr *T) T {
	return *ptr
}

func SafeDeref[T any](val *T) T {
	if val == nil {
		return *new(T)
	}
	return *val
}

// EmptyAsNil maps "" to nil.
//
// Identifier columns (doi, isi, issn, orcid, ...) are unique but optional;
// they are stored as NULL when unknown so the unique index ignores them.
func EmptyAsNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// NilAsEmpty is the inverse of EmptyAsNil.
func NilAsEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
