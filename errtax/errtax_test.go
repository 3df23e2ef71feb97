package errtax

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewWrapsSentinelWithGroupAndMessage(t *testing.T) {
	d := New(ErrUniqueConstraintViolation, "duplicate key %d", 1)
	if d.Group != GroupConstraint {
		t.Fatalf("Group = %v, want %v", d.Group, GroupConstraint)
	}
	if d.Error() != "unique_constraint_violation_exception: duplicate key 1" {
		t.Fatalf("Error() = %q", d.Error())
	}
	if !Is(d, ErrUniqueConstraintViolation) {
		t.Fatalf("Is() should match the wrapped sentinel")
	}
}

func TestIsMatchesThroughFmtWrapping(t *testing.T) {
	wrapped := fmt.Errorf("write failed: %w", ErrNotNullConstraintViolation)
	if !Is(wrapped, ErrNotNullConstraintViolation) {
		t.Fatalf("expected Is to see through fmt.Errorf wrapping")
	}
	if Is(wrapped, ErrUniqueConstraintViolation) {
		t.Fatalf("Is should not match an unrelated sentinel")
	}
}

func TestDetailUnwrapReturnsCode(t *testing.T) {
	d := New(ErrSerializationFailure, "")
	if !errors.Is(d, ErrSerializationFailure) {
		t.Fatalf("errors.Is via Unwrap should match the sentinel code")
	}
}

func TestEveryGroupedSentinelHasANonEmptyGroup(t *testing.T) {
	for code, group := range groupOf {
		if group == "" {
			t.Errorf("sentinel %v has no group assigned", code)
		}
	}
}
