package pointer_test

import (
	"testing"

	"github.com/comses/citation/pkg/utils/pointer"
)

func TestSafeDeref(t *testing.T) {
	t.Run("it dereferences non-nil pointer", func(t *testing.T) {
		v := "10.1000/example"
		if actual := pointer.SafeDeref(&v); actual != v {
			t.Errorf("unmatch: %s", actual)
		}
	})
	t.Run("it returns zero value for nil", func(t *testing.T) {
		if actual := pointer.SafeDeref[string](nil); actual != "" {
			t.Errorf("unmatch: %s", actual)
		}
		if actual := pointer.SafeDeref[int](nil); actual != 0 {
			t.Errorf("unmatch: %d", actual)
		}
	})
}

func TestEmptyAsNil(t *testing.T) {
	t.Run("it maps empty string to nil", func(t *testing.T) {
		if actual := pointer.EmptyAsNil(""); actual != nil {
			t.Errorf("unmatch: %v", actual)
		}
	})
	t.Run("it maps non-empty string to pointer", func(t *testing.T) {
		actual := pointer.EmptyAsNil("0000-0002-1825-0097")
		if actual == nil || *actual != "0000-0002-1825-0097" {
			t.Errorf("unmatch: %v", actual)
		}
	})
	t.Run("NilAsEmpty inverts it", func(t *testing.T) {
		for _, v := range []string{"", "10.1000/example"} {
			if actual := pointer.NilAsEmpty(pointer.EmptyAsNil(v)); actual != v {
				t.Errorf("unmatch: %s", actual)
			}
		}
	})
}
