package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/caresync/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
// 認証情報はauth_accountsテーブル、プロフィールはusersテーブルに分かれる。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

const userColumns = `id, name, email, avatar_url, role, color`

// List は全ユーザーを返す。
func (r *PostgresUserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY name`,
	)
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var row userRow
		if err := rows.Scan(&row.ID, &row.Name, &row.Email, &row.AvatarURL, &row.Role, &row.Color); err != nil {
			return nil, model.NewRemoteFailureError(err)
		}
		users = append(users, row.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, model.NewRemoteFailureError(err)
	}
	return users, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var row userRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	).Scan(&row.ID, &row.Name, &row.Email, &row.AvatarURL, &row.Role, &row.Color)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	user := row.toModel()
	return &user, nil
}

// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを検索する。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var row userRow
	err := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`,
		email,
	).Scan(&row.ID, &row.Name, &row.Email, &row.AvatarURL, &row.Role, &row.Color)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	user := row.toModel()
	return &user, nil
}

// FindCredentials はログイン識別子（メールアドレスまたはその@より前の部分）で
// 認証情報を検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindCredentials(ctx context.Context, login string) (*Credentials, error) {
	var cred Credentials
	var hash sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, password_hash FROM auth_accounts
		 WHERE lower(email) = lower($1)
		    OR split_part(lower(email), '@', 1) = lower($1)`,
		login,
	).Scan(&cred.UserID, &hash)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	cred.PasswordHash = hash.String
	return &cred, nil
}

// Create は認証アカウントとプロフィール行を順に作成する。
// 2つのINSERTは意図的にトランザクションにしない:
// プロフィール作成が失敗した場合、アカウント行は残り、エラーはそのまま返る。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_accounts (user_id, email, password_hash)
		 VALUES ($1, $2, $3)`,
		user.ID, user.Email, nullString(user.PasswordHash),
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}

	row := userRowFromModel(*user)
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, avatar_url, role, color)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		row.ID, row.Name, row.Email, row.AvatarURL, row.Role, row.Color,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}

	return nil
}

// UpdateRole は指定ユーザーの権限を更新し、更新後のユーザーを返す。
func (r *PostgresUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	var row userRow
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET role = $2 WHERE id = $1
		 RETURNING `+userColumns,
		id, string(role),
	).Scan(&row.ID, &row.Name, &row.Email, &row.AvatarURL, &row.Role, &row.Color)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, model.NewRemoteFailureError(err)
	}

	user := row.toModel()
	return &user, nil
}

// DeleteByID は認証アカウントとプロフィール行を単一文で削除する。
// 行が存在しない場合も成功として扱う。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`WITH deleted_account AS (
			DELETE FROM auth_accounts WHERE user_id = $1
		 )
		 DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return model.NewRemoteFailureError(err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
