package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/caresync/internal/model"
)

// PostgresElderlyRepo はPostgreSQLを使用した被介護者プロフィールリポジトリ。
type PostgresElderlyRepo struct {
	db *sql.DB
}

// NewPostgresElderlyRepo はPostgresElderlyRepoを生成する。
func NewPostgresElderlyRepo(db *sql.DB) *PostgresElderlyRepo {
	return &PostgresElderlyRepo{db: db}
}

const elderlyColumns = `id, name, gender, avatar_url, conditions, notes`

// List は全プロフィールを返す。
func (r *PostgresElderlyRepo) List(ctx context.Context) ([]model.ElderlyProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+elderlyColumns+` FROM elderly_profiles ORDER BY name`,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}
	defer rows.Close()

	var profiles []model.ElderlyProfile
	for rows.Next() {
		var row elderlyRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Gender, &row.AvatarURL, &row.Conditions, &row.Notes); err != nil {
			return nil, model.NewRemoteFailureError(err)
		}
		profiles = append(profiles, row.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewRemoteFailureError(err)
	}
	return profiles, nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresElderlyRepo) FindByID(ctx context.Context, id string) (*model.ElderlyProfile, error) {
	var row elderlyRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+elderlyColumns+` FROM elderly_profiles WHERE id = $1`,
		id,
	).Scan(&row.ID, &row.Name, &row.Gender, &row.AvatarURL, &row.Conditions, &row.Notes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	profile := row.toModel()
	return &profile, nil
}

// Create はプロフィールを作成する。
func (r *PostgresElderlyRepo) Create(ctx context.Context, profile *model.ElderlyProfile) error {
	row := elderlyRowFromModel(*profile)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO elderly_profiles (id, name, gender, avatar_url, conditions, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.ID, row.Name, row.Gender, row.AvatarURL, row.Conditions, row.Notes,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}
	return nil
}

// DeleteByID は指定IDのプロフィールを削除する。行が存在しない場合も成功として扱う。
func (r *PostgresElderlyRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM elderly_profiles WHERE id = $1`,
		id,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}
	return nil
}

// compile-time interface check
var _ ElderlyRepository = (*PostgresElderlyRepo)(nil)
