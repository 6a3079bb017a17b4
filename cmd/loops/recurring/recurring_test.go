package recurring_test

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/comses/citation/cmd/loops/recurring"
	"github.com/comses/citation/pkg/loop"
)

func TestParsePolicy(t *testing.T) {
	for name, testcase := range map[string]struct {
		when        string
		then        recurring.Policy
		expectError bool
	}{
		"forever means forever": {
			when: "forever",
			then: recurring.Forever(0),
		},
		"forever:3s means forever with cooldown 3 seconds": {
			when: "forever:3s",
			then: recurring.Forever(3 * time.Second),
		},
		"forever:someday can not be parsed (someday is not time.Duration)": {
			when:        "forever:someday",
			expectError: true,
		},
		"backlog means backlog": {
			when: "backlog",
			then: recurring.Backlog(),
		},
		"backlog:param can not be parsed (it should not take any parameters)": {
			when:        "backlog:param",
			expectError: true,
		},
		"empty string can not be parsed (it is not policy)": {
			when:        "",
			expectError: true,
		},
		"unknown policy can not be parsed (it is not policy)": {
			when:        "???????unknown??????",
			expectError: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, expected := testcase.when, testcase.then
			actual, err := recurring.ParsePolicy(when)

			if testcase.expectError {
				if err == nil {
					t.Fatal("expected error does not occured")
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if actual != expected {
				t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, expected)
			}
		})
	}
}

func TestResilient(t *testing.T) {
	logger := log.New(io.Discard, "", 0)
	dbDown := errors.New("fake outage")
	isTransient := func(err error) bool { return errors.Is(err, dbDown) }

	t.Run("transient errors back the loop off, doubling the wait up to the cap", func(t *testing.T) {
		testee := recurring.Resilient(
			logger, recurring.UntilError(recurring.Forever(time.Minute)),
			isTransient, 100*time.Millisecond, 350*time.Millisecond,
		)

		for nth, expected := range []loop.Next{
			loop.Continue(100 * time.Millisecond),
			loop.Continue(200 * time.Millisecond),
			loop.Continue(350 * time.Millisecond),
			loop.Continue(350 * time.Millisecond),
		} {
			if actual := testee.Next(false, dbDown); actual != expected {
				t.Errorf("try #%d: unmatch: (actual, expected) = (%s, %s)", nth, actual, expected)
			}
		}
	})

	t.Run("an outcome the base policy handles resets the wait", func(t *testing.T) {
		testee := recurring.Resilient(
			logger, recurring.UntilError(recurring.Forever(time.Minute)),
			isTransient, 100*time.Millisecond, 350*time.Millisecond,
		)

		testee.Next(false, dbDown)
		testee.Next(false, dbDown)

		if actual := testee.Next(false, nil); actual != loop.Continue(time.Minute) {
			t.Errorf("base policy does not decide: %s", actual)
		}
		if actual := testee.Next(false, dbDown); actual != loop.Continue(100*time.Millisecond) {
			t.Errorf("wait is not reset: %s", actual)
		}
	})

	t.Run("errors that will not cure themselves break through to the base", func(t *testing.T) {
		testee := recurring.Resilient(
			logger, recurring.UntilError(recurring.Forever(time.Minute)),
			isTransient, 100*time.Millisecond, 350*time.Millisecond,
		)

		fatal := errors.New("fake broken query")
		if actual := testee.Next(false, fatal); actual != loop.Break(fatal) {
			t.Errorf("the loop does not break: %s", actual)
		}
	})
}
