package args_test

import (
	"errors"
	"flag"
	"strconv"
	"testing"

	"github.com/comses/citation/pkg/utils/args"
	"github.com/comses/citation/pkg/utils/cmp"
)

type Even int

func AsEven(s string) (Even, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v%2 != 0 {
		return 0, errors.New("odd number!")
	}

	return Even(v), nil
}

func (e Even) String() string {
	return strconv.Itoa(int(e))
}

func TestArgs(t *testing.T) {
	t.Run("when it parses an acceptable value, parsing success", func(t *testing.T) {
		testee := args.Parser(AsEven)
		if testee.IsSet() {
			t.Error("it is set, unexpectedly")
		}
		if zero := new(Even); testee.Value() != *zero {
			t.Error("it is not initialized with zero value: ", testee.Value())
		}

		f := flag.NewFlagSet("test", flag.ContinueOnError)
		f.Var(testee, "arg", "")

		if err := f.Parse([]string{"-arg", "12"}); err != nil {
			t.Fatal(err)
		}

		expected := 12
		if testee.Value() != Even(expected) {
			t.Errorf("unmatch: Value(): (actual, expected) = (%d, %d)", testee.Value(), expected)
		}

		if !testee.IsSet() {
			t.Error("it is not set")
		}
	})

	t.Run("when it parses an unacceptable value, parsing errors", func(t *testing.T) {
		testee := args.Parser(AsEven)

		f := flag.NewFlagSet("test", flag.ContinueOnError)
		f.Var(testee, "arg", "")

		if err := f.Parse([]string{"-arg", "1"}); err == nil {
			t.Error("expected error does not happen")
		}

		if testee.IsSet() {
			t.Error("it is set, unexpectedly")
		}
	})
}

func TestList(t *testing.T) {
	t.Run("each occurrence of the flag appends a value", func(t *testing.T) {
		testee := args.ListParser(AsEven)
		if testee.IsSet() {
			t.Error("it is set, unexpectedly")
		}

		f := flag.NewFlagSet("test", flag.ContinueOnError)
		f.Var(testee, "arg", "")

		if err := f.Parse([]string{"-arg", "12", "-arg", "34"}); err != nil {
			t.Fatal(err)
		}

		if expected := []Even{12, 34}; !cmp.SliceEq(testee.Values(), expected) {
			t.Errorf("unmatch: Values(): (actual, expected) = (%v, %v)", testee.Values(), expected)
		}
		if !testee.IsSet() {
			t.Error("it is not set")
		}
		if expected := "12,34"; testee.String() != expected {
			t.Errorf("unmatch: String(): (actual, expected) = (%s, %s)", testee.String(), expected)
		}
	})

	t.Run("when any occurrence is unacceptable, parsing errors", func(t *testing.T) {
		testee := args.ListParser(AsEven)

		f := flag.NewFlagSet("test", flag.ContinueOnError)
		f.Var(testee, "arg", "")

		if err := f.Parse([]string{"-arg", "12", "-arg", "1"}); err == nil {
			t.Error("expected error does not happen")
		}
	})
}
