package try_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/comses/citation/pkg/utils/try"
)

func TestTo(t *testing.T) {
	t.Run("when it is ok, Get returns the value", func(t *testing.T) {
		actual, err := try.To(strconv.Atoi("42")).Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if actual != 42 {
			t.Errorf("unmatch: %d", actual)
		}
	})
	t.Run("when it is ng, Get returns the error", func(t *testing.T) {
		_, err := try.To(strconv.Atoi("forty-two")).Get()
		if err == nil {
			t.Fatal("error is not reported")
		}
	})
	t.Run("OrDefault falls back only on ng", func(t *testing.T) {
		if actual := try.To(strconv.Atoi("42")).OrDefault(-1); actual != 42 {
			t.Errorf("unmatch: %d", actual)
		}
		if actual := try.To(strconv.Atoi("forty-two")).OrDefault(-1); actual != -1 {
			t.Errorf("unmatch: %d", actual)
		}
	})
}

type fakeFataler struct {
	called bool
}

func (f *fakeFataler) Fatal(v ...interface{}) {
	f.called = true
}

func TestOrFatal(t *testing.T) {
	t.Run("when it is ok, Fataler is not invoked", func(t *testing.T) {
		ftl := &fakeFataler{}
		actual := try.To("value", nil).OrFatal(ftl)
		if ftl.called {
			t.Error("Fatal is called, unexpectedly")
		}
		if actual != "value" {
			t.Errorf("unmatch: %s", actual)
		}
	})
	t.Run("when it is ng, Fataler is invoked", func(t *testing.T) {
		ftl := &fakeFataler{}
		try.To("", errors.New("fake error")).OrFatal(ftl)
		if !ftl.called {
			t.Error("Fatal is not called")
		}
	})
}

func TestMap(t *testing.T) {
	t.Run("it maps ok value", func(t *testing.T) {
		source := try.To(strconv.Atoi("21"))
		actual, err := try.Map(source, func(v int) int { return v * 2 }).Get()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if actual != 42 {
			t.Errorf("unmatch: %d", actual)
		}
	})
	t.Run("it passes through ng", func(t *testing.T) {
		source := try.To(strconv.Atoi("twenty-one"))
		if _, err := try.Map(source, func(v int) int { return v * 2 }).Get(); err == nil {
			t.Fatal("error is not reported")
		}
	})
}
