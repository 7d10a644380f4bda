package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/caresync/internal/middleware"
	"github.com/hitoshi/caresync/internal/model"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	GetTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	// AssignTask は担当者を設定（userID != nil）または解除（userID == nil）する。
	AssignTask(ctx context.Context, taskID string, userID *string) (*model.Task, error)
	UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) (*model.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

// createTaskRequest はタスク作成リクエストのボディ。
type createTaskRequest struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	ElderlyID    string  `json:"elderlyId"`
	AssignedToID *string `json:"assignedToId"`
	ScheduledAt  string  `json:"scheduledAt"`
	Priority     string  `json:"priority"`
	Type         string  `json:"type"`
}

// assignTaskRequest は担当者変更リクエストのボディ。
// userIdがnullの場合は担当者を解除する。
type assignTaskRequest struct {
	UserID *string `json:"userId"`
}

// updateStatusRequest は状態更新リクエストのボディ。
type updateStatusRequest struct {
	Status string `json:"status"`
}

// ListTasks は全タスクの一覧を返す。
// GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.GetTasks(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, toTaskResponse(&tasks[i]))
	}

	writeSuccess(w, http.StatusOK, responses)
}

// CreateTask は新規タスクを作成する。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("scheduledAtはRFC3339形式で指定してください。"))
		return
	}

	task, err := h.service.CreateTask(r.Context(), model.Task{
		Title:        req.Title,
		Description:  req.Description,
		ElderlyID:    req.ElderlyID,
		AssignedToID: req.AssignedToID,
		CreatedBy:    userID,
		ScheduledAt:  scheduledAt,
		Priority:     model.TaskPriority(req.Priority),
		Type:         model.TaskType(req.Type),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, toTaskResponse(task))
}

// Assign はタスクの担当者を変更する。
// PATCH /api/tasks/:id/assign
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	var req assignTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	task, err := h.service.AssignTask(r.Context(), taskID, req.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toTaskResponse(task))
}

// UpdateStatus はタスクの状態を更新する。
// PATCH /api/tasks/:id/status
func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, model.NewValidationError("リクエストボディの解析に失敗しました。"))
		return
	}

	task, err := h.service.UpdateTaskStatus(r.Context(), taskID, model.TaskStatus(req.Status))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, toTaskResponse(task))
}

// Delete はタスクを削除する。
// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "id")

	if err := h.service.DeleteTask(r.Context(), taskID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
