package domain_test

import (
	"errors"
	"testing"

	"github.com/comses/citation/pkg/domain"
)

func TestAsAuditAction(t *testing.T) {
	for _, s := range []string{"SPLIT", "MERGE", "LOAD", "MANUAL"} {
		actual, err := domain.AsAuditAction(s)
		if err != nil {
			t.Errorf("unexpected error for %s: %+v", s, err)
		}
		if actual.String() != s {
			t.Errorf("unmatch: (actual, expected) = (%s, %s)", actual, s)
		}
	}

	if _, err := domain.AsAuditAction("UNDO"); !errors.Is(err, domain.ErrUnknownAuditAction) {
		t.Errorf("expected ErrUnknownAuditAction, got %+v", err)
	}
}

func TestAsLogAction(t *testing.T) {
	for _, s := range []string{"INSERT", "UPDATE", "DELETE"} {
		actual, err := domain.AsLogAction(s)
		if err != nil {
			t.Errorf("unexpected error for %s: %+v", s, err)
		}
		if actual.String() != s {
			t.Errorf("unmatch: (actual, expected) = (%s, %s)", actual, s)
		}
	}

	if _, err := domain.AsLogAction("UPSERT"); !errors.Is(err, domain.ErrUnknownLogAction) {
		t.Errorf("expected ErrUnknownLogAction, got %+v", err)
	}
}

func TestAuditCommand_Saved(t *testing.T) {
	unsaved := domain.AuditCommand{Action: domain.ActionManual, Creator: "alice"}
	if unsaved.Saved() {
		t.Error("command without id should not count as saved")
	}

	saved := domain.AuditCommand{Id: 42, Action: domain.ActionManual, Creator: "alice"}
	if !saved.Saved() {
		t.Error("command with id should count as saved")
	}
}

func TestLogPayload_Equal(t *testing.T) {
	theory := func(a, b *domain.LogPayload, then bool) func(*testing.T) {
		return func(t *testing.T) {
			if actual := a.Equal(b); actual != then {
				t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, then)
			}
		}
	}

	t.Run("when payloads hold the same row data, they are equal", theory(
		&domain.LogPayload{
			Data:   map[string]any{"title": "A model", "flagged": false},
			Labels: map[string]any{"publication": "A model (3)"},
		},
		&domain.LogPayload{
			Data:   map[string]any{"title": "A model", "flagged": false},
			Labels: map[string]any{"publication": "A model (3)"},
		},
		true,
	))
	t.Run("when payloads hold the same field changes, they are equal", theory(
		&domain.LogPayload{
			Data: map[string]any{
				"status": map[string]any{"old": "UNREVIEWED", "new": "REVIEWED"},
			},
			Labels: map[string]any{"publication": "A model (3)"},
		},
		&domain.LogPayload{
			Data: map[string]any{
				"status": map[string]any{"old": "UNREVIEWED", "new": "REVIEWED"},
			},
			Labels: map[string]any{"publication": "A model (3)"},
		},
		true,
	))
	t.Run("when nested values differ, they are not equal", theory(
		&domain.LogPayload{
			Data: map[string]any{
				"status": map[string]any{"old": "UNREVIEWED", "new": "REVIEWED"},
			},
		},
		&domain.LogPayload{
			Data: map[string]any{
				"status": map[string]any{"old": "UNREVIEWED", "new": "INVALID"},
			},
		},
		false,
	))
	t.Run("when one payload is nil, only nil equals it", theory(
		nil, &domain.LogPayload{}, false,
	))
}
