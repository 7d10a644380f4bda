package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/caresync/internal/middleware"
	"github.com/hitoshi/caresync/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetUsers(ctx context.Context) ([]model.User, error)
	UpdateUserRole(ctx context.Context, userID string, role model.Role) (*model.User, error)
	// DeleteUser はユーザーを削除し、割り当て済みタスクの担当者を解除する。
	DeleteUser(ctx context.Context, userID string) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// updateRoleRequest は権限更新リクエストのボディ。
type updateRoleRequest struct {
	Role string `json:"role"`
}

// ListUsers は全ユーザーの一覧を返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.GetUsers(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]userResponse, 0, len(users))
	for i := range users {
		responses = append(responses, toUserResponse(&users[i]))
	}

	writeSuccess(w, http.StatusOK, responses)
}

// UpdateRole はユーザーの権限を更新する。
// PATCH /api/users/:id/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	user, err := h.service.UpdateUserRole(r.Context(), userID, model.Role(req.Role))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toUserResponse(user))
}

// Delete はユーザーを削除する。
// 削除されたユーザーに割り当てられていたタスクは未割り当てになる。
// DELETE /api/users/:id
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	if err := h.service.DeleteUser(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
