package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/caresync/internal/model"
)

// TestWriteErrorResponse_WritesUnifiedFormat は統一エラーフォーマットでレスポンスが書き込まれることを検証する。
func TestWriteErrorResponse_WritesUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, model.NewValidationError("テストエラーです。"))

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Error.Kind != string(model.ErrKindValidation) {
		t.Errorf("kind = %q, want %q", body.Error.Kind, model.ErrKindValidation)
	}
	if body.Error.Message != "テストエラーです。" {
		t.Errorf("message = %q, want %q", body.Error.Message, "テストエラーです。")
	}
}

// TestStatusForError_MapsKindsToStatusCodes はエラー種別から正しいステータスコードが導出されることを検証する。
func TestStatusForError_MapsKindsToStatusCodes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"NotFound", model.NewNotFoundError("タスク", "t-1"), http.StatusNotFound},
		{"Validation", model.NewValidationError("bad input"), http.StatusBadRequest},
		{"StorageFailure", model.NewStorageFailureError(errors.New("disk io")), http.StatusInternalServerError},
		{"RemoteFailure", model.NewRemoteFailureError(errors.New("connection refused")), http.StatusBadGateway},
		{"PlainError", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForError(tt.err); got != tt.want {
				t.Errorf("StatusForError = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestWriteErrorResponse_PlainErrorHidesDetails はDataError以外のエラーで詳細が漏れないことを検証する。
func TestWriteErrorResponse_PlainErrorHidesDetails(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, errors.New("password hash leaked detail"))

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if body.Error.Message == "password hash leaked detail" {
		t.Error("plain error details should not be exposed to clients")
	}
}

// TestInternalServerError_ReturnsUnifiedFormat は内部エラーが統一フォーマットで返ることを検証する。
func TestInternalServerError_ReturnsUnifiedFormat(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Error.Kind != string(model.ErrKindStorageFailure) {
		t.Errorf("kind = %q, want %q", body.Error.Kind, model.ErrKindStorageFailure)
	}
}

// TestErrorResponseBody_AllFieldsPresent は全フィールドがJSONレスポンスに含まれることを検証する。
func TestErrorResponseBody_AllFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, model.NewNotFoundError("ユーザー", "u-404"))

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if _, ok := raw["success"]; !ok {
		t.Error("missing required field: success")
	}
	errObj, ok := raw["error"].(map[string]interface{})
	if !ok {
		t.Fatal("missing required field: error")
	}
	for _, field := range []string{"kind", "message"} {
		if _, ok := errObj[field]; !ok {
			t.Errorf("missing required field: error.%s", field)
		}
	}
}
