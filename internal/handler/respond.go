// Package handler はHTTPハンドラーを提供する。
//
// すべてのAPIレスポンスは統一エンベロープを使う:
// 成功時は {"success": true, "data": ...}、
// 失敗時は {"success": false, "error": {"kind": ..., "message": ...}}。
// エンティティはレスポンス専用の構造体に詰め替えて返す。
// model.Userをそのまま返すとパスワードハッシュが漏れるため、
// 新しいエンドポイントでも必ずDTOを経由すること。
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/caresync/internal/middleware"
	"github.com/hitoshi/caresync/internal/model"
)

// successResponse は成功レスポンスの統一エンベロープ。
type successResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// writeSuccess は成功エンベロープでJSONレスポンスを書き込む。
func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(successResponse{
		Success: true,
		Data:    data,
	})
}

// handleServiceError はサービス層から返されたエラーをHTTPレスポンスに変換する。
// DataError以外のエラーは詳細をログのみに記録し、一般的な500を返す。
func handleServiceError(w http.ResponseWriter, err error) {
	if _, ok := model.AsDataError(err); ok {
		middleware.WriteErrorResponse(w, err)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// --- レスポンスDTO ---

// userResponse はユーザー情報のAPIレスポンス。
// パスワードハッシュは含めない。
type userResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl"`
	Role      string `json:"role"`
	Color     string `json:"color"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Role:      string(u.Role),
		Color:     u.Color,
	}
}

// elderlyResponse は被介護者プロフィールのAPIレスポンス。
type elderlyResponse struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Gender     string   `json:"gender"`
	AvatarURL  string   `json:"avatarUrl"`
	Conditions []string `json:"conditions"`
	Notes      string   `json:"notes"`
}

func toElderlyResponse(p *model.ElderlyProfile) elderlyResponse {
	conditions := p.Conditions
	if conditions == nil {
		conditions = []string{}
	}
	return elderlyResponse{
		ID:         p.ID,
		Name:       p.Name,
		Gender:     string(p.Gender),
		AvatarURL:  p.AvatarURL,
		Conditions: conditions,
		Notes:      p.Notes,
	}
}

// taskResponse はタスクのAPIレスポンス。
type taskResponse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ElderlyID    string  `json:"elderlyId"`
	AssignedToID *string `json:"assignedToId"`
	CreatedBy    string  `json:"createdBy"`
	ScheduledAt  string  `json:"scheduledAt"`
	CompletedAt  *string `json:"completedAt"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	Type         string  `json:"type"`
}

func toTaskResponse(t *model.Task) taskResponse {
	var completedAt *string
	if t.CompletedAt != nil {
		s := t.CompletedAt.Format(time.RFC3339)
		completedAt = &s
	}
	return taskResponse{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		ElderlyID:    t.ElderlyID,
		AssignedToID: t.AssignedToID,
		CreatedBy:    t.CreatedBy,
		ScheduledAt:  t.ScheduledAt.Format(time.RFC3339),
		CompletedAt:  completedAt,
		Status:       string(t.Status),
		Priority:     string(t.Priority),
		Type:         string(t.Type),
	}
}
