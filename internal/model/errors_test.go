package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestDataError_ErrorFormat(t *testing.T) {
	err := NewNotFoundError("ユーザー", "u1")
	want := "[NOT_FOUND] ユーザーが見つかりません: u1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestAsDataError_DirectError(t *testing.T) {
	err := NewValidationError("名前は必須です。")

	dataErr, ok := AsDataError(err)
	if !ok {
		t.Fatal("AsDataError should match a *DataError")
	}
	if dataErr.Kind != ErrKindValidation {
		t.Errorf("Kind = %q, want %q", dataErr.Kind, ErrKindValidation)
	}
}

func TestAsDataError_WrappedError(t *testing.T) {
	inner := NewStorageFailureError(errors.New("disk full"))
	wrapped := fmt.Errorf("saving task: %w", inner)

	dataErr, ok := AsDataError(wrapped)
	if !ok {
		t.Fatal("AsDataError should unwrap to *DataError")
	}
	if dataErr.Kind != ErrKindStorageFailure {
		t.Errorf("Kind = %q, want %q", dataErr.Kind, ErrKindStorageFailure)
	}
}

func TestAsDataError_PlainError(t *testing.T) {
	if _, ok := AsDataError(errors.New("plain")); ok {
		t.Error("plain errors should not match")
	}
	if _, ok := AsDataError(nil); ok {
		t.Error("nil should not match")
	}
}

func TestNewRemoteFailureError_KeepsUpstreamMessage(t *testing.T) {
	err := NewRemoteFailureError(errors.New("pq: connection refused"))
	if err.Message != "pq: connection refused" {
		t.Errorf("Message = %q, want upstream message unchanged", err.Message)
	}
}

func TestRoleAndStatusValidation(t *testing.T) {
	if !RoleAdmin.IsValid() || !RoleMember.IsValid() {
		t.Error("defined roles should be valid")
	}
	if Role("SUPERUSER").IsValid() {
		t.Error("unknown role should be invalid")
	}

	if !TaskStatusPending.IsValid() || !TaskStatusCompleted.IsValid() {
		t.Error("defined statuses should be valid")
	}
	if TaskStatus("IN_PROGRESS").IsValid() {
		t.Error("unknown status should be invalid")
	}
}
