package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/caresync/internal/model"
)

// --- モック定義 ---

// mockElderlyService はElderlyServiceInterfaceのモック実装。
type mockElderlyService struct {
	getElderlyProfilesFn   func(ctx context.Context) ([]model.ElderlyProfile, error)
	createElderlyProfileFn func(ctx context.Context, profile model.ElderlyProfile) (*model.ElderlyProfile, error)
	deleteElderlyProfileFn func(ctx context.Context, id string) error
}

func (m *mockElderlyService) GetElderlyProfiles(ctx context.Context) ([]model.ElderlyProfile, error) {
	if m.getElderlyProfilesFn != nil {
		return m.getElderlyProfilesFn(ctx)
	}
	return nil, nil
}

func (m *mockElderlyService) CreateElderlyProfile(ctx context.Context, profile model.ElderlyProfile) (*model.ElderlyProfile, error) {
	if m.createElderlyProfileFn != nil {
		return m.createElderlyProfileFn(ctx, profile)
	}
	return nil, nil
}

func (m *mockElderlyService) DeleteElderlyProfile(ctx context.Context, id string) error {
	if m.deleteElderlyProfileFn != nil {
		return m.deleteElderlyProfileFn(ctx, id)
	}
	return nil
}

// --- GET /api/elderly テスト ---

func TestElderlyHandler_ListProfiles_Success(t *testing.T) {
	svc := &mockElderlyService{
		getElderlyProfilesFn: func(ctx context.Context) ([]model.ElderlyProfile, error) {
			return []model.ElderlyProfile{
				{ID: "e1", Name: "Vó Maria", Gender: model.GenderFemale, Conditions: []string{"Diabetes", "Hipertensão"}},
				{ID: "e2", Name: "Vô Roberto", Gender: model.GenderMale},
			}, nil
		},
	}
	h := NewElderlyHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/elderly", nil)
	w := httptest.NewRecorder()

	h.ListProfiles(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var envelope struct {
		Success bool              `json:"success"`
		Data    []elderlyResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("len(data) = %d, want 2", len(envelope.Data))
	}
	if len(envelope.Data[0].Conditions) != 2 {
		t.Errorf("conditions = %v", envelope.Data[0].Conditions)
	}
	// nilのConditionsはnullではなく空配列として返ること
	if envelope.Data[1].Conditions == nil {
		t.Error("conditions should be [] not null")
	}
}

func TestElderlyHandler_ListProfiles_NilConditionsSerializeAsEmptyArray(t *testing.T) {
	svc := &mockElderlyService{
		getElderlyProfilesFn: func(ctx context.Context) ([]model.ElderlyProfile, error) {
			return []model.ElderlyProfile{{ID: "e1", Name: "Vó Maria"}}, nil
		},
	}
	h := NewElderlyHandler(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/elderly", nil)
	w := httptest.NewRecorder()

	h.ListProfiles(w, req)

	if !strings.Contains(w.Body.String(), `"conditions":[]`) {
		t.Errorf("raw body should contain empty conditions array, got: %s", w.Body.String())
	}
}

// --- POST /api/elderly テスト ---

func TestElderlyHandler_CreateProfile_Success(t *testing.T) {
	svc := &mockElderlyService{
		createElderlyProfileFn: func(ctx context.Context, profile model.ElderlyProfile) (*model.ElderlyProfile, error) {
			if profile.Name != "Vó Maria" {
				t.Errorf("name = %q, want %q", profile.Name, "Vó Maria")
			}
			if profile.Gender != model.GenderFemale {
				t.Errorf("gender = %q, want %q", profile.Gender, model.GenderFemale)
			}
			profile.ID = "e-new"
			return &profile, nil
		},
	}
	h := NewElderlyHandler(svc)

	body := bytes.NewBufferString(`{"name":"Vó Maria","gender":"FEMALE","conditions":["Diabetes"],"notes":"Gosta de caminhar"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/elderly", body)
	w := httptest.NewRecorder()

	h.CreateProfile(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    elderlyResponse `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&envelope); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if envelope.Data.ID != "e-new" {
		t.Errorf("data.id = %q, want %q", envelope.Data.ID, "e-new")
	}
}

func TestElderlyHandler_CreateProfile_InvalidJSON(t *testing.T) {
	h := NewElderlyHandler(&mockElderlyService{})

	body := bytes.NewBufferString(`{bad`)
	req := httptest.NewRequest(http.MethodPost, "/api/elderly", body)
	w := httptest.NewRecorder()

	h.CreateProfile(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestElderlyHandler_CreateProfile_ValidationError(t *testing.T) {
	svc := &mockElderlyService{
		createElderlyProfileFn: func(ctx context.Context, profile model.ElderlyProfile) (*model.ElderlyProfile, error) {
			return nil, model.NewValidationError("名前は必須です。")
		},
	}
	h := NewElderlyHandler(svc)

	body := bytes.NewBufferString(`{"name":""}`)
	req := httptest.NewRequest(http.MethodPost, "/api/elderly", body)
	w := httptest.NewRecorder()

	h.CreateProfile(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	envelope := decodeErrorEnvelope(t, w)
	if envelope.Error.Message != "名前は必須です。" {
		t.Errorf("message = %q", envelope.Error.Message)
	}
}

// --- DELETE /api/elderly/:id テスト ---

func TestElderlyHandler_DeleteProfile_Success(t *testing.T) {
	deletedID := ""
	svc := &mockElderlyService{
		deleteElderlyProfileFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	h := NewElderlyHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/elderly/e1", nil)
	req = withChiURLParam(req, "id", "e1")
	w := httptest.NewRecorder()

	h.DeleteProfile(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deletedID != "e1" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "e1")
	}
}

func TestElderlyHandler_DeleteProfile_NotFound(t *testing.T) {
	svc := &mockElderlyService{
		deleteElderlyProfileFn: func(ctx context.Context, id string) error {
			return model.NewNotFoundError("被介護者", id)
		},
	}
	h := NewElderlyHandler(svc)

	req := httptest.NewRequest(http.MethodDelete, "/api/elderly/missing", nil)
	req = withChiURLParam(req, "id", "missing")
	w := httptest.NewRecorder()

	h.DeleteProfile(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
