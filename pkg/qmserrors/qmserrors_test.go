package qmserrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorMessageWithAndWithoutHint(t *testing.T) {
	plain := New(DocumentNotFound, "document %s not found", "SOP-001")
	if plain.Error() != "document SOP-001 not found" {
		t.Errorf("Error() = %q", plain.Error())
	}

	hinted := plain.WithHint("run qms create first")
	want := "document SOP-001 not found (hint: run qms create first)"
	if hinted.Error() != want {
		t.Errorf("Error() = %q, want %q", hinted.Error(), want)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := Wrap(InvalidTransition, cause, "could not write %s", "meta.json")
	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestKindOfFindsDirectError(t *testing.T) {
	err := New(PermissionDenied, "nope")
	kind, ok := KindOf(err)
	if !ok || kind != PermissionDenied {
		t.Errorf("KindOf = %v, %v, want PermissionDenied, true", kind, ok)
	}
}

func TestKindOfFindsWrappedError(t *testing.T) {
	inner := New(CheckedOut, "checked out by bob")
	outer := fmt.Errorf("route failed: %w", inner)
	kind, ok := KindOf(outer)
	if !ok || kind != CheckedOut {
		t.Errorf("KindOf = %v, %v, want CheckedOut, true", kind, ok)
	}
}

func TestKindOfReturnsFalseForPlainError(t *testing.T) {
	_, ok := KindOf(errors.New("not a qms error"))
	if ok {
		t.Error("KindOf should return false for a non-qmserrors error")
	}
}

func TestKindOfReturnsFalseForNil(t *testing.T) {
	_, ok := KindOf(nil)
	if ok {
		t.Error("KindOf should return false for nil")
	}
}

func TestExitCode(t *testing.T) {
	if ExitCode(nil) != 0 {
		t.Error("ExitCode(nil) should be 0")
	}
	if ExitCode(New(DocumentNotFound, "x")) != 1 {
		t.Error("ExitCode of any error should be 1")
	}
}
