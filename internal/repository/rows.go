package repository

import (
	"database/sql"
	"time"

	"github.com/lib/pq"

	"github.com/hitoshi/caresync/internal/model"
)

// このファイルはリモートスキーマ（snake_caseカラム）とドメインモデル
// （camelCaseフィールド）の間の変換を定義する。変換は純粋関数であり、
// toModelは欠損したNULLカラムに定義済みのデフォルト値（空文字列・空スライス）を
// 補い、fromModelはリモートスキーマに存在しないフィールドを黙って落とす。

// userRow はusersテーブル（プロフィール行）の行表現。
// 認証情報はauth_accountsテーブルが持つため、このテーブルには存在しない。
type userRow struct {
	ID        string
	Name      string
	Email     string
	AvatarURL sql.NullString
	Role      string
	Color     sql.NullString
}

// toModel は行をドメインモデルに変換する。NULLカラムは空文字列になる。
// リモート由来のユーザーは認証情報を持たないため、ハッシュは常に空で返る。
func (r userRow) toModel() model.User {
	return model.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		AvatarURL: r.AvatarURL.String,
		Role:      model.Role(r.Role),
		Color:     r.Color.String,
	}
}

// userRowFromModel はドメインモデルを行表現に変換する。
// PasswordHashはリモートスキーマが受け付けないため、ここで落ちる。
func userRowFromModel(u model.User) userRow {
	return userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: nullString(u.AvatarURL),
		Role:      string(u.Role),
		Color:     nullString(u.Color),
	}
}

// elderlyRow はelderly_profilesテーブルの行表現。
// conditionsはPostgreSQLのtext[]カラムに対応する。
type elderlyRow struct {
	ID         string
	Name       string
	Gender     string
	AvatarURL  sql.NullString
	Conditions pq.StringArray
	Notes      sql.NullString
}

// toModel は行をドメインモデルに変換する。
// conditionsがNULLの場合は空スライス、notesがNULLの場合は空文字列になる。
func (r elderlyRow) toModel() model.ElderlyProfile {
	conditions := make([]string, len(r.Conditions))
	copy(conditions, r.Conditions)
	return model.ElderlyProfile{
		ID:         r.ID,
		Name:       r.Name,
		Gender:     model.Gender(r.Gender),
		AvatarURL:  r.AvatarURL.String,
		Conditions: conditions,
		Notes:      r.Notes.String,
	}
}

// elderlyRowFromModel はドメインモデルを行表現に変換する。
func elderlyRowFromModel(p model.ElderlyProfile) elderlyRow {
	return elderlyRow{
		ID:         p.ID,
		Name:       p.Name,
		Gender:     string(p.Gender),
		AvatarURL:  nullString(p.AvatarURL),
		Conditions: pq.StringArray(p.Conditions),
		Notes:      nullString(p.Notes),
	}
}

// taskRow はtasksテーブルの行表現。
type taskRow struct {
	ID           string
	Title        string
	Description  sql.NullString
	ElderlyID    string
	AssignedToID sql.NullString
	CreatedBy    string
	ScheduledAt  time.Time
	CompletedAt  sql.NullTime
	Status       string
	Priority     string
	Type         string
}

// toModel は行をドメインモデルに変換する。
// descriptionがNULLの場合は空文字列、assigned_to_id / completed_atがNULLの場合はnilになる。
func (r taskRow) toModel() model.Task {
	t := model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description.String,
		ElderlyID:   r.ElderlyID,
		CreatedBy:   r.CreatedBy,
		ScheduledAt: r.ScheduledAt,
		Status:      model.TaskStatus(r.Status),
		Priority:    model.TaskPriority(r.Priority),
		Type:        model.TaskType(r.Type),
	}
	if r.AssignedToID.Valid {
		assignee := r.AssignedToID.String
		t.AssignedToID = &assignee
	}
	if r.CompletedAt.Valid {
		completedAt := r.CompletedAt.Time
		t.CompletedAt = &completedAt
	}
	return t
}

// taskRowFromModel はドメインモデルを行表現に変換する。
func taskRowFromModel(t model.Task) taskRow {
	r := taskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: nullString(t.Description),
		ElderlyID:   t.ElderlyID,
		CreatedBy:   t.CreatedBy,
		ScheduledAt: t.ScheduledAt,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		Type:        string(t.Type),
	}
	if t.AssignedToID != nil {
		r.AssignedToID = sql.NullString{String: *t.AssignedToID, Valid: true}
	}
	if t.CompletedAt != nil {
		r.CompletedAt = sql.NullTime{Time: *t.CompletedAt, Valid: true}
	}
	return r
}

// nullString は空文字列をNULLとして扱うsql.NullStringを返す。
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
