// Package repository はデータ永続化のインターフェースを定義する。
//
// 各インターフェースにはリモート実装（PostgreSQL、1操作=1行操作）と
// ローカル実装（SQLite KVストア、コレクション全体のread-modify-write）がある。
// どちらを使うかは起動時に一度だけ決定され、サービス層はモードを意識しない。
//
// エラー分類は実装側の責務: リモート実装はREMOTE_FAILURE、ローカル実装は
// STORAGE_FAILUREの*model.DataErrorを返す。エンティティ未検出は
// エラーではなくnilで表現する（サービス層がNOT_FOUNDに変換する）。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/caresync/internal/model"
)

// Credentials はログイン検証に必要な認証情報を表す。
type Credentials struct {
	UserID       string
	PasswordHash string
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// List は全ユーザーを返す。
	List(ctx context.Context) ([]model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindCredentials はログイン識別子で認証情報を検索する。
	// 識別子はメールアドレス全体またはその@より前の部分（どちらも小文字比較）。
	// 見つからない場合はnilを返す。
	FindCredentials(ctx context.Context, login string) (*Credentials, error)

	// Create はユーザーを作成する。
	// リモート実装では認証アカウントとプロフィール行を順に作成する2段階操作であり、
	// 2段階目の失敗時にアカウントは残る（補償は行わない）。
	Create(ctx context.Context, user *model.User) error

	// UpdateRole は指定ユーザーの権限を更新し、更新後のユーザーを返す。
	// 見つからない場合はnilを返す。
	UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// タスクの割り当て解除は行わない。呼び出し側が後続の書き込みとして実行する。
	DeleteByID(ctx context.Context, id string) error
}

// ElderlyRepository は被介護者プロフィールの永続化インターフェース。
type ElderlyRepository interface {
	// List は全プロフィールを返す。
	List(ctx context.Context) ([]model.ElderlyProfile, error)

	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.ElderlyProfile, error)

	// Create はプロフィールを作成する。
	Create(ctx context.Context, profile *model.ElderlyProfile) error

	// DeleteByID は指定IDのプロフィールを削除する。
	// 参照するタスクの削除は行わない。呼び出し側が後続の書き込みとして実行する。
	DeleteByID(ctx context.Context, id string) error
}

// TaskRepository はケアタスクの永続化インターフェース。
type TaskRepository interface {
	// List は全タスクを返す。
	List(ctx context.Context) ([]model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Task, error)

	// Create はタスクを作成する。
	Create(ctx context.Context, task *model.Task) error

	// Assign は担当者を設定（userID != nil）または解除（userID == nil）し、
	// 更新後のタスクを返す。見つからない場合はnilを返す。
	// 担当者の存在検証は行わない。参照切れは読み出し側で未割り当てとして扱われる。
	Assign(ctx context.Context, id string, userID *string) (*model.Task, error)

	// UpdateStatus は状態と完了時刻を同時に更新し、更新後のタスクを返す。
	// 見つからない場合はnilを返す。リモート実装では単一の行操作として実行される。
	UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) (*model.Task, error)

	// DeleteByID は指定IDのタスクを削除する。
	DeleteByID(ctx context.Context, id string) error

	// DeleteByElderlyID は指定プロフィールを参照する全タスクを削除する。
	DeleteByElderlyID(ctx context.Context, elderlyID string) error

	// UnassignByUserID は指定ユーザーに割り当てられた全タスクの担当者を解除する。
	// タスク自体は削除しない。
	UnassignByUserID(ctx context.Context, userID string) error
}

// SessionRepository はログインセッションの永続化インターフェース。
// ローカル実装は単一スロットであり、Createは既存セッションを上書きする。
type SessionRepository interface {
	// Create はセッションを保存する。
	Create(ctx context.Context, session *model.Session) error

	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteByID は指定IDのセッションを削除する。存在しない場合も成功として扱う。
	DeleteByID(ctx context.Context, id string) error
}
