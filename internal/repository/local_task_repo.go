package repository

import (
	"context"
	"time"

	"github.com/hitoshi/caresync/internal/localstore"
	"github.com/hitoshi/caresync/internal/model"
	"github.com/hitoshi/caresync/internal/notify"
)

// LocalTaskRepo はローカルKVストアを使用したケアタスクリポジトリ。
// すべての変更はコレクション全体のread-modify-writeで行われる。
// プロセス内の書き込みはストアのロックで直列化されるが、
// 同じファイルを開いた別プロセスとの競合では後勝ちになる（既知の制限）。
type LocalTaskRepo struct {
	store     *localstore.Store
	publisher publisher
}

// NewLocalTaskRepo はLocalTaskRepoを生成する。
func NewLocalTaskRepo(store *localstore.Store, pub publisher) *LocalTaskRepo {
	return &LocalTaskRepo{store: store, publisher: pub}
}

// List は全タスクを返す。スロットが無い・壊れている場合は空を返す。
func (r *LocalTaskRepo) List(ctx context.Context) ([]model.Task, error) {
	return readCollection[model.Task](r.store, localstore.KeyTasks), nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *LocalTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	for _, t := range readCollection[model.Task](r.store, localstore.KeyTasks) {
		if t.ID == id {
			task := t
			return &task, nil
		}
	}
	return nil, nil
}

// Create はタスクをコレクション末尾に追加する。
func (r *LocalTaskRepo) Create(ctx context.Context, task *model.Task) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyTasks, notify.CollectionTasks,
		func(tasks []model.Task) ([]model.Task, bool) {
			return append(tasks, *task), true
		})
}

// Assign は担当者を設定または解除し、更新後のタスクを返す。
// 見つからない場合はnilを返す（書き込みも通知も行わない）。
func (r *LocalTaskRepo) Assign(ctx context.Context, id string, userID *string) (*model.Task, error) {
	var updated *model.Task
	err := mutateCollection(r.store, r.publisher, localstore.KeyTasks, notify.CollectionTasks,
		func(tasks []model.Task) ([]model.Task, bool) {
			for i := range tasks {
				if tasks[i].ID == id {
					tasks[i].AssignedToID = userID
					t := tasks[i]
					updated = &t
					return tasks, true
				}
			}
			return nil, false
		})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus は状態と完了時刻を同時に更新し、更新後のタスクを返す。
func (r *LocalTaskRepo) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) (*model.Task, error) {
	var updated *model.Task
	err := mutateCollection(r.store, r.publisher, localstore.KeyTasks, notify.CollectionTasks,
		func(tasks []model.Task) ([]model.Task, bool) {
			for i := range tasks {
				if tasks[i].ID == id {
					tasks[i].Status = status
					tasks[i].CompletedAt = completedAt
					t := tasks[i]
					updated = &t
					return tasks, true
				}
			}
			return nil, false
		})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByID は指定IDのタスクをコレクションから取り除く。
func (r *LocalTaskRepo) DeleteByID(ctx context.Context, id string) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyTasks, notify.CollectionTasks,
		func(tasks []model.Task) ([]model.Task, bool) {
			kept := tasks[:0]
			for _, t := range tasks {
				if t.ID != id {
					kept = append(kept, t)
				}
			}
			return kept, true
		})
}

// DeleteByElderlyID は指定プロフィールを参照する全タスクを取り除く。
func (r *LocalTaskRepo) DeleteByElderlyID(ctx context.Context, elderlyID string) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyTasks, notify.CollectionTasks,
		func(tasks []model.Task) ([]model.Task, bool) {
			kept := tasks[:0]
			for _, t := range tasks {
				if t.ElderlyID != elderlyID {
					kept = append(kept, t)
				}
			}
			return kept, true
		})
}

// UnassignByUserID は指定ユーザーに割り当てられた全タスクの担当者を解除する。
// タスクの件数は変化しない。
func (r *LocalTaskRepo) UnassignByUserID(ctx context.Context, userID string) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyTasks, notify.CollectionTasks,
		func(tasks []model.Task) ([]model.Task, bool) {
			for i := range tasks {
				if tasks[i].AssignedToID != nil && *tasks[i].AssignedToID == userID {
					tasks[i].AssignedToID = nil
				}
			}
			return tasks, true
		})
}

// compile-time interface check
var _ TaskRepository = (*LocalTaskRepo)(nil)
