package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/caresync/internal/model"
)

// PostgresTaskRepo はPostgreSQLを使用したケアタスクリポジトリ。
// 担当者変更・状態変更は単一のUPDATE文で実行され、行単位で原子的になる。
type PostgresTaskRepo struct {
	db *sql.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

const taskColumns = `id, title, description, elderly_id, assigned_to_id, created_by,
	scheduled_at, completed_at, status, priority, type`

func scanTaskRow(scan func(dest ...any) error) (taskRow, error) {
	var row taskRow
	err := scan(
		&row.ID, &row.Title, &row.Description, &row.ElderlyID, &row.AssignedToID,
		&row.CreatedBy, &row.ScheduledAt, &row.CompletedAt, &row.Status, &row.Priority, &row.Type,
	)
	return row, err
}

// List は全タスクを返す。
func (r *PostgresTaskRepo) List(ctx context.Context) ([]model.Task, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks ORDER BY scheduled_at`,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		row, err := scanTaskRow(rows.Scan)
		if err != nil {
			return nil, model.NewRemoteFailureError(err)
		}
		tasks = append(tasks, row.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewRemoteFailureError(err)
	}
	return tasks, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, id string) (*model.Task, error) {
	row, err := scanTaskRow(r.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`,
		id,
	).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	task := row.toModel()
	return &task, nil
}

// Create はタスクを作成する。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	row := taskRowFromModel(*task)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (id, title, description, elderly_id, assigned_to_id, created_by,
			scheduled_at, completed_at, status, priority, type)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		row.ID, row.Title, row.Description, row.ElderlyID, row.AssignedToID,
		row.CreatedBy, row.ScheduledAt, row.CompletedAt, row.Status, row.Priority, row.Type,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}
	return nil
}

// Assign は担当者を設定または解除し、更新後のタスクを返す。
// 担当者の存在検証は行わない（参照切れは許容される）。
func (r *PostgresTaskRepo) Assign(ctx context.Context, id string, userID *string) (*model.Task, error) {
	var assignee sql.NullString
	if userID != nil {
		assignee = sql.NullString{String: *userID, Valid: true}
	}

	row, err := scanTaskRow(r.db.QueryRowContext(ctx,
		`UPDATE tasks SET assigned_to_id = $2 WHERE id = $1
		 RETURNING `+taskColumns,
		id, assignee,
	).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	task := row.toModel()
	return &task, nil
}

// UpdateStatus は状態と完了時刻を単一のUPDATEで更新し、更新後のタスクを返す。
func (r *PostgresTaskRepo) UpdateStatus(ctx context.Context, id string, status model.TaskStatus, completedAt *time.Time) (*model.Task, error) {
	var completed sql.NullTime
	if completedAt != nil {
		completed = sql.NullTime{Time: *completedAt, Valid: true}
	}

	row, err := scanTaskRow(r.db.QueryRowContext(ctx,
		`UPDATE tasks SET status = $2, completed_at = $3 WHERE id = $1
		 RETURNING `+taskColumns,
		id, string(status), completed,
	).Scan)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	task := row.toModel()
	return &task, nil
}

// DeleteByID は指定IDのタスクを削除する。行が存在しない場合も成功として扱う。
func (r *PostgresTaskRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1`,
		id,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}
	return nil
}

// DeleteByElderlyID は指定プロフィールを参照する全タスクを削除する。
func (r *PostgresTaskRepo) DeleteByElderlyID(ctx context.Context, elderlyID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE elderly_id = $1`,
		elderlyID,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}
	return nil
}

// UnassignByUserID は指定ユーザーに割り当てられた全タスクの担当者を解除する。
// タスクの行数は変化しない。
func (r *PostgresTaskRepo) UnassignByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET assigned_to_id = NULL WHERE assigned_to_id = $1`,
		userID,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}
	return nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
