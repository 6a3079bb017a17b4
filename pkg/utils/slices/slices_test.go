package slices_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/comses/citation/pkg/utils/cmp"
	"github.com/comses/citation/pkg/utils/slices"
)

func TestMap(t *testing.T) {
	t.Run("it maps each element", func(t *testing.T) {
		src := []int{1, 2, 3, 4}
		actual := slices.Map(src, func(v int) string { return strconv.Itoa(v * 10) })
		expected := []string{"10", "20", "30", "40"}
		if !cmp.SliceEq(actual, expected) {
			t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, expected)
		}
	})
	t.Run("it maps empty slice to empty slice", func(t *testing.T) {
		actual := slices.Map([]int{}, func(v int) string { return strconv.Itoa(v) })
		if len(actual) != 0 {
			t.Errorf("mapping result of empty slice is not empty: %v", actual)
		}
	})
}

func TestMapUntilError(t *testing.T) {
	t.Run("when mapper success for all elements, it returns mapped slice", func(t *testing.T) {
		src := []string{"1", "2", "3"}
		actual, err := slices.MapUntilError(src, strconv.Atoi)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !cmp.SliceEq(actual, []int{1, 2, 3}) {
			t.Errorf("unmatch: %v", actual)
		}
	})
	t.Run("when mapper fails, it returns the error", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		src := []string{"1", "two", "3"}
		mapped := []string{}
		_, err := slices.MapUntilError(src, func(v string) (int, error) {
			mapped = append(mapped, v)
			if v == "two" {
				return 0, expectedErr
			}
			return strconv.Atoi(v)
		})
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if !cmp.SliceEq(mapped, []string{"1", "two"}) {
			t.Errorf("mapper is not stopped at the first error: %v", mapped)
		}
	})
}

func TestRefAndDeref(t *testing.T) {
	src := []string{"a", "b", "c"}
	refs := slices.RefOf(src)
	if len(refs) != len(src) {
		t.Fatalf("length unmatch: %d", len(refs))
	}
	for nth := range refs {
		if *refs[nth] != src[nth] {
			t.Errorf("#%d: unmatch: %s", nth, *refs[nth])
		}
	}
	if !cmp.SliceEq(slices.DerefOf(refs), src) {
		t.Error("DerefOf(RefOf(src)) != src")
	}
}

func TestToMap(t *testing.T) {
	t.Run("it converts slice to map by key", func(t *testing.T) {
		src := []string{"apple", "banana", "cherry"}
		actual := slices.ToMap(src, func(v string) string { return v[:1] })
		expected := map[string]string{"a": "apple", "b": "banana", "c": "cherry"}
		if !cmp.MapEq(actual, expected) {
			t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, expected)
		}
	})
	t.Run("latter value takes over the former on key collision", func(t *testing.T) {
		src := []string{"apple", "avocado"}
		actual := slices.ToMap(src, func(v string) string { return v[:1] })
		expected := map[string]string{"a": "avocado"}
		if !cmp.MapEq(actual, expected) {
			t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, expected)
		}
	})
}

func TestToMultiMap(t *testing.T) {
	src := []string{"apple", "avocado", "banana", "blueberry", "cherry"}
	actual := slices.ToMultiMap(src, func(v string) (string, int) { return v[:1], len(v) })
	expected := map[string][]int{
		"a": {5, 7},
		"b": {6, 9},
		"c": {6},
	}
	if !cmp.MapEqWith(actual, expected, cmp.SliceEq[int]) {
		t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, expected)
	}
}

func TestKeysOfValuesOf(t *testing.T) {
	m := map[string]int{"a": 1, "b": 2, "c": 3}
	if keys := slices.KeysOf(m); !cmp.SliceContentEq(keys, []string{"a", "b", "c"}) {
		t.Errorf("KeysOf: unmatch: %v", keys)
	}
	if values := slices.ValuesOf(m); !cmp.SliceContentEq(values, []int{1, 2, 3}) {
		t.Errorf("ValuesOf: unmatch: %v", values)
	}
}

func TestFilter(t *testing.T) {
	t.Run("it drops unmatched elements", func(t *testing.T) {
		src := []int{1, 2, 3, 4, 5, 6}
		actual := slices.Filter(src, func(v int) bool { return v%2 == 0 })
		if !cmp.SliceEq(actual, []int{2, 4, 6}) {
			t.Errorf("unmatch: %v", actual)
		}
	})
	t.Run("it keeps ordering", func(t *testing.T) {
		src := []string{"x", "longer", "y", "lengthy", "z"}
		actual := slices.Filter(src, func(v string) bool { return 1 < len(v) })
		if !cmp.SliceEq(actual, []string{"longer", "lengthy"}) {
			t.Errorf("unmatch: %v", actual)
		}
	})
	t.Run("it returns empty slice for empty source", func(t *testing.T) {
		actual := slices.Filter([]int{}, func(int) bool { return true })
		if actual == nil || len(actual) != 0 {
			t.Errorf("unmatch: %v", actual)
		}
	})
}

func TestFirst(t *testing.T) {
	t.Run("it finds the first match", func(t *testing.T) {
		src := []string{"alpha", "beta", "gamma", "banana"}
		actual, ok := slices.First(src, func(v string) bool { return strings.HasPrefix(v, "b") })
		if !ok {
			t.Fatal("not found, unexpectedly")
		}
		if actual != "beta" {
			t.Errorf("unmatch: %s", actual)
		}
	})
	t.Run("it returns false when nothing matches", func(t *testing.T) {
		src := []string{"alpha", "beta"}
		if _, ok := slices.First(src, func(v string) bool { return v == "x" }); ok {
			t.Error("found, unexpectedly")
		}
	})
}

func TestContains(t *testing.T) {
	src := []string{"foo", "bar", "baz"}
	for _, item := range src {
		if !slices.Contains(src, item) {
			t.Errorf("%s is not found in %v", item, src)
		}
	}
	if slices.Contains(src, "quux") {
		t.Errorf("quux is found in %v, unexpectedly", src)
	}
}

func TestDeduplicate(t *testing.T) {
	t.Run("it keeps the first occurence of each element", func(t *testing.T) {
		src := []string{"a", "b", "a", "c", "b", "a"}
		actual := slices.Deduplicate(src)
		if !cmp.SliceEq(actual, []string{"a", "b", "c"}) {
			t.Errorf("unmatch: %v", actual)
		}
	})
	t.Run("it passes through slice without duplication", func(t *testing.T) {
		src := []int{3, 1, 2}
		actual := slices.Deduplicate(src)
		if !cmp.SliceEq(actual, src) {
			t.Errorf("unmatch: %v", actual)
		}
	})
}

func TestSorted(t *testing.T) {
	src := []int{3, 1, 4, 1, 5, 9, 2, 6}
	actual := slices.Sorted(src, func(a, b int) bool { return a < b })
	if !cmp.SliceEq(actual, []int{1, 1, 2, 3, 4, 5, 6, 9}) {
		t.Errorf("unmatch: %v", actual)
	}
	if !cmp.SliceEq(src, []int{3, 1, 4, 1, 5, 9, 2, 6}) {
		t.Errorf("source slice is modified: %v", src)
	}
}

func TestConcat(t *testing.T) {
	actual := slices.Concat([]int{1, 2}, []int{}, []int{3}, []int{4, 5})
	if !cmp.SliceEq(actual, []int{1, 2, 3, 4, 5}) {
		t.Errorf("unmatch: %v", actual)
	}
}
