// Package care はケア調整データの統一サービス層を提供する。
//
// アプリケーションの他の層はこのパッケージ（とauth）だけを通じてデータに
// アクセスする。バックエンドがローカルかリモートかは構築時に注入される
// リポジトリ実装が決め、このパッケージの中にモード分岐は存在しない。
// 返されるエンティティはすべてコピーであり、呼び出し側での直接変更は
// 永続化されない。変更は必ずこの層の操作を経由すること。
package care

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/caresync/internal/model"
	"github.com/hitoshi/caresync/internal/notify"
	"github.com/hitoshi/caresync/internal/repository"
)

// Sanitizer は自由記述フィールドの無害化インターフェース。
type Sanitizer interface {
	Sanitize(raw string) string
}

// MetricsCollector は書き込み操作の計測インターフェース。
type MetricsCollector interface {
	RecordWrite(collection string)
}

// Service はタスク・被介護者プロフィール・ユーザー管理の統一サービス。
type Service struct {
	userRepo    repository.UserRepository
	elderlyRepo repository.ElderlyRepository
	taskRepo    repository.TaskRepository
	notifier    notify.Notifier
	sanitizer   Sanitizer
	metrics     MetricsCollector
}

// NewService はServiceを生成する。sanitizerとmetricsはnil許容。
func NewService(
	userRepo repository.UserRepository,
	elderlyRepo repository.ElderlyRepository,
	taskRepo repository.TaskRepository,
	notifier notify.Notifier,
	sanitizer Sanitizer,
	metrics MetricsCollector,
) *Service {
	return &Service{
		userRepo:    userRepo,
		elderlyRepo: elderlyRepo,
		taskRepo:    taskRepo,
		notifier:    notifier,
		sanitizer:   sanitizer,
		metrics:     metrics,
	}
}

// SubscribeToChanges は変更通知を購読し、購読解除関数を返す。
// コールバックは変更のあったコレクション名を受け取るが、ペイロードは運ばない。
// 購読者は通知を合図に必要なデータを再フェッチする。
// 配信はat-least-once・順序保証なし。
func (s *Service) SubscribeToChanges(fn func(collection string)) func() {
	return s.notifier.Subscribe(fn)
}

// --- ユーザー ---

// GetUsers は全ユーザーを返す。
func (s *Service) GetUsers(ctx context.Context) ([]model.User, error) {
	return s.userRepo.List(ctx)
}

// UpdateUserRole は指定ユーザーの権限を更新する。
func (s *Service) UpdateUserRole(ctx context.Context, userID string, role model.Role) (*model.User, error) {
	if !role.IsValid() {
		return nil, model.NewValidationError("無効な権限です: " + string(role))
	}

	user, err := s.userRepo.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, model.NewNotFoundError("ユーザー", userID)
	}

	s.recordWrite(notify.CollectionUsers)
	return user, nil
}

// DeleteUser はユーザーを削除し、そのユーザーに割り当てられていた全タスクの
// 担当者を解除する。削除→割り当て解除の順の、依存する2回の書き込みとして
// 実行される。タスク自体は削除されないため、タスクの件数は変化しない。
// 1回目の成功後に2回目が失敗した場合、割り当てだけが残る（補償は行わない）。
func (s *Service) DeleteUser(ctx context.Context, userID string) error {
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return err
	}
	s.recordWrite(notify.CollectionUsers)

	if err := s.taskRepo.UnassignByUserID(ctx, userID); err != nil {
		return err
	}
	s.recordWrite(notify.CollectionTasks)

	slog.Info("user deleted, referencing tasks unassigned", slog.String("user_id", userID))
	return nil
}

// --- 被介護者プロフィール ---

// GetElderlyProfiles は全プロフィールを返す。
func (s *Service) GetElderlyProfiles(ctx context.Context) ([]model.ElderlyProfile, error) {
	return s.elderlyRepo.List(ctx)
}

// CreateElderlyProfile はプロフィールを作成する。
// IDが未設定の場合は採番し、自由記述のメモは保存前に無害化される。
func (s *Service) CreateElderlyProfile(ctx context.Context, profile model.ElderlyProfile) (*model.ElderlyProfile, error) {
	if profile.ID == "" {
		profile.ID = uuid.New().String()
	}
	if profile.Name == "" {
		return nil, model.NewValidationError("名前は必須です。")
	}
	if profile.Conditions == nil {
		profile.Conditions = []string{}
	}
	profile.Notes = s.sanitize(profile.Notes)

	if err := s.elderlyRepo.Create(ctx, &profile); err != nil {
		return nil, err
	}

	s.recordWrite(notify.CollectionElderly)
	return &profile, nil
}

// DeleteElderlyProfile はプロフィールを削除し、それを参照する全タスクを
// ハード削除する。依存する2回の書き込みとして実行される。
// ユーザー削除（割り当て解除のみ）とは意図的に非対称なカスケード。
func (s *Service) DeleteElderlyProfile(ctx context.Context, id string) error {
	if err := s.elderlyRepo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.recordWrite(notify.CollectionElderly)

	if err := s.taskRepo.DeleteByElderlyID(ctx, id); err != nil {
		return err
	}
	s.recordWrite(notify.CollectionTasks)

	slog.Info("elderly profile deleted with referencing tasks", slog.String("elderly_id", id))
	return nil
}

// --- タスク ---

// GetTasks は全タスクを返す。
func (s *Service) GetTasks(ctx context.Context) ([]model.Task, error) {
	return s.taskRepo.List(ctx)
}

// CreateTask はタスクを作成する。
// IDが未設定の場合は採番する。状態は常にPENDINGで開始し、
// 完了時刻は持たない（完了への遷移はUpdateTaskStatusで行う）。
func (s *Service) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.Title == "" {
		return nil, model.NewValidationError("タイトルは必須です。")
	}
	if task.ElderlyID == "" {
		return nil, model.NewValidationError("被介護者の指定は必須です。")
	}
	task.Description = s.sanitize(task.Description)
	task.Status = model.TaskStatusPending
	task.CompletedAt = nil

	if err := s.taskRepo.Create(ctx, &task); err != nil {
		return nil, err
	}

	s.recordWrite(notify.CollectionTasks)
	return &task, nil
}

// AssignTask は担当者を設定（userID != nil）または解除（userID == nil）する。
// 担当ユーザーの存在は検証しない: 参照切れは許容され、読み出し側で
// 未割り当てとして扱われる。
func (s *Service) AssignTask(ctx context.Context, taskID string, userID *string) (*model.Task, error) {
	task, err := s.taskRepo.Assign(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, model.NewNotFoundError("タスク", taskID)
	}

	s.recordWrite(notify.CollectionTasks)
	return task, nil
}

// UpdateTaskStatus はタスクの状態を更新する。
// COMPLETEDへの遷移は現在時刻を完了時刻として記録し、
// COMPLETED以外への遷移は完了時刻を消去する（完了時刻は状態がCOMPLETEDの
// 場合に限り存在する、という不変条件を保つ）。
// 状態と完了時刻の更新は呼び出し側から見て1つの操作として実行される。
func (s *Service) UpdateTaskStatus(ctx context.Context, taskID string, status model.TaskStatus) (*model.Task, error) {
	if !status.IsValid() {
		return nil, model.NewValidationError("無効なタスク状態です: " + string(status))
	}

	var completedAt *time.Time
	if status == model.TaskStatusCompleted {
		now := time.Now()
		completedAt = &now
	}

	task, err := s.taskRepo.UpdateStatus(ctx, taskID, status, completedAt)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, model.NewNotFoundError("タスク", taskID)
	}

	s.recordWrite(notify.CollectionTasks)
	return task, nil
}

// DeleteTask は指定IDのタスクを削除する。
func (s *Service) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.taskRepo.DeleteByID(ctx, taskID); err != nil {
		return err
	}
	s.recordWrite(notify.CollectionTasks)
	return nil
}

func (s *Service) sanitize(raw string) string {
	if s.sanitizer == nil {
		return raw
	}
	return s.sanitizer.Sanitize(raw)
}

func (s *Service) recordWrite(collection string) {
	if s.metrics != nil {
		s.metrics.RecordWrite(collection)
	}
}
