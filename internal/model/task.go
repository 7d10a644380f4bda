package model

import "time"

// TaskStatus はタスクの進行状態を表す。
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "PENDING"
	TaskStatusCompleted TaskStatus = "COMPLETED"
)

// IsValid はTaskStatusが定義済みの値かどうかを返す。
func (s TaskStatus) IsValid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// TaskPriority はタスクの優先度を表す。
type TaskPriority string

const (
	TaskPriorityLow      TaskPriority = "LOW"
	TaskPriorityMedium   TaskPriority = "MEDIUM"
	TaskPriorityHigh     TaskPriority = "HIGH"
	TaskPriorityCritical TaskPriority = "CRITICAL"
)

// TaskType はケアタスクの種別を表す。
type TaskType string

const (
	TaskTypeMedication TaskType = "MEDICATION"
	TaskTypeMeal       TaskType = "MEAL"
	TaskTypeHygiene    TaskType = "HYGIENE"
	TaskTypeActivity   TaskType = "ACTIVITY"
	TaskTypeOther      TaskType = "OTHER"
)

// Task は被介護者に対するケアタスクを表す。
// AssignedToIDは未割り当ての場合nil。
// CompletedAtはStatusがCOMPLETEDの場合のみ非nil（不変条件）。
type Task struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	ElderlyID    string       `json:"elderlyId"`
	AssignedToID *string      `json:"assignedToId"`
	CreatedBy    string       `json:"createdBy"`
	ScheduledAt  time.Time    `json:"scheduledAt"`
	CompletedAt  *time.Time   `json:"completedAt,omitempty"`
	Status       TaskStatus   `json:"status"`
	Priority     TaskPriority `json:"priority"`
	Type         TaskType     `json:"type"`
}
