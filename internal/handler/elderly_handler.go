package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/caresync/internal/middleware"
	"github.com/hitoshi/caresync/internal/model"
)

// ElderlyServiceInterface は被介護者ハンドラーが必要とするサービスインターフェース。
type ElderlyServiceInterface interface {
	GetElderlyProfiles(ctx context.Context) ([]model.ElderlyProfile, error)
	CreateElderlyProfile(ctx context.Context, profile model.ElderlyProfile) (*model.ElderlyProfile, error)
	// DeleteElderlyProfile はプロフィールと、それを参照する全タスクを削除する。
	DeleteElderlyProfile(ctx context.Context, id string) error
}

// ElderlyHandler は被介護者プロフィール管理のHTTPハンドラー。
type ElderlyHandler struct {
	service ElderlyServiceInterface
}

// NewElderlyHandler はElderlyHandlerを生成する。
func NewElderlyHandler(service ElderlyServiceInterface) *ElderlyHandler {
	return &ElderlyHandler{service: service}
}

// createElderlyRequest はプロフィール作成リクエストのボディ。
type createElderlyRequest struct {
	Name       string   `json:"name"`
	Gender     string   `json:"gender"`
	AvatarURL  string   `json:"avatarUrl"`
	Conditions []string `json:"conditions"`
	Notes      string   `json:"notes"`
}

// ListProfiles は全プロフィールの一覧を返す。
// GET /api/elderly
func (h *ElderlyHandler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.GetElderlyProfiles(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]elderlyResponse, 0, len(profiles))
	for i := range profiles {
		responses = append(responses, toElderlyResponse(&profiles[i]))
	}

	writeSuccess(w, http.StatusOK, responses)
}

// CreateProfile は新規プロフィールを作成する。
// POST /api/elderly
func (h *ElderlyHandler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req createElderlyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	profile, err := h.service.CreateElderlyProfile(r.Context(), model.ElderlyProfile{
		Name:       req.Name,
		Gender:     model.Gender(req.Gender),
		AvatarURL:  req.AvatarURL,
		Conditions: req.Conditions,
		Notes:      req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toElderlyResponse(profile))
}

// DeleteProfile はプロフィールを削除する。
// 参照しているタスクもすべて削除される。
// DELETE /api/elderly/:id
func (h *ElderlyHandler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.service.DeleteElderlyProfile(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
