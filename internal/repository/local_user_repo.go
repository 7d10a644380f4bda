package repository

import (
	"context"
	"strings"

	"github.com/hitoshi/caresync/internal/localstore"
	"github.com/hitoshi/caresync/internal/model"
	"github.com/hitoshi/caresync/internal/notify"
)

// LocalUserRepo はローカルKVストアを使用したユーザーリポジトリ。
// usersコレクション全体をJSON配列として1スロットに保存する。
type LocalUserRepo struct {
	store     *localstore.Store
	publisher publisher
}

// NewLocalUserRepo はLocalUserRepoを生成する。
func NewLocalUserRepo(store *localstore.Store, pub publisher) *LocalUserRepo {
	return &LocalUserRepo{store: store, publisher: pub}
}

// List は全ユーザーを返す。スロットが無い・壊れている場合は空を返す。
func (r *LocalUserRepo) List(ctx context.Context) ([]model.User, error) {
	return readCollection[model.User](r.store, localstore.KeyUsers), nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *LocalUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	for _, u := range readCollection[model.User](r.store, localstore.KeyUsers) {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを検索する。
func (r *LocalUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, u := range readCollection[model.User](r.store, localstore.KeyUsers) {
		if strings.EqualFold(u.Email, email) {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

// FindCredentials はログイン識別子（メールアドレスまたはその@より前の部分）で
// 認証情報を検索する。見つからない場合はnilを返す。
func (r *LocalUserRepo) FindCredentials(ctx context.Context, login string) (*Credentials, error) {
	login = strings.ToLower(login)
	for _, u := range readCollection[model.User](r.store, localstore.KeyUsers) {
		email := strings.ToLower(u.Email)
		if email == login || strings.SplitN(email, "@", 2)[0] == login {
			return &Credentials{UserID: u.ID, PasswordHash: u.PasswordHash}, nil
		}
	}
	return nil, nil
}

// Create はユーザーをコレクション末尾に追加する。
func (r *LocalUserRepo) Create(ctx context.Context, user *model.User) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyUsers, notify.CollectionUsers,
		func(users []model.User) ([]model.User, bool) {
			return append(users, *user), true
		})
}

// UpdateRole は指定ユーザーの権限を更新し、更新後のユーザーを返す。
// 見つからない場合はnilを返す（書き込みも通知も行わない）。
func (r *LocalUserRepo) UpdateRole(ctx context.Context, id string, role model.Role) (*model.User, error) {
	var updated *model.User
	err := mutateCollection(r.store, r.publisher, localstore.KeyUsers, notify.CollectionUsers,
		func(users []model.User) ([]model.User, bool) {
			for i := range users {
				if users[i].ID == id {
					users[i].Role = role
					u := users[i]
					updated = &u
					return users, true
				}
			}
			return nil, false
		})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByID は指定IDのユーザーをコレクションから取り除く。
// 存在しない場合も元実装に合わせて成功として扱い、コレクションを書き戻す。
func (r *LocalUserRepo) DeleteByID(ctx context.Context, id string) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyUsers, notify.CollectionUsers,
		func(users []model.User) ([]model.User, bool) {
			kept := users[:0]
			for _, u := range users {
				if u.ID != id {
					kept = append(kept, u)
				}
			}
			return kept, true
		})
}

// compile-time interface check
var _ UserRepository = (*LocalUserRepo)(nil)
