package repository

import (
	"context"

	"github.com/hitoshi/caresync/internal/localstore"
	"github.com/hitoshi/caresync/internal/model"
	"github.com/hitoshi/caresync/internal/notify"
)

// LocalElderlyRepo はローカルKVストアを使用した被介護者プロフィールリポジトリ。
type LocalElderlyRepo struct {
	store     *localstore.Store
	publisher publisher
}

// NewLocalElderlyRepo はLocalElderlyRepoを生成する。
func NewLocalElderlyRepo(store *localstore.Store, pub publisher) *LocalElderlyRepo {
	return &LocalElderlyRepo{store: store, publisher: pub}
}

// List は全プロフィールを返す。スロットが無い・壊れている場合は空を返す。
func (r *LocalElderlyRepo) List(ctx context.Context) ([]model.ElderlyProfile, error) {
	return readCollection[model.ElderlyProfile](r.store, localstore.KeyElderly), nil
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *LocalElderlyRepo) FindByID(ctx context.Context, id string) (*model.ElderlyProfile, error) {
	for _, p := range readCollection[model.ElderlyProfile](r.store, localstore.KeyElderly) {
		if p.ID == id {
			profile := p
			return &profile, nil
		}
	}
	return nil, nil
}

// Create はプロフィールをコレクション末尾に追加する。
func (r *LocalElderlyRepo) Create(ctx context.Context, profile *model.ElderlyProfile) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyElderly, notify.CollectionElderly,
		func(profiles []model.ElderlyProfile) ([]model.ElderlyProfile, bool) {
			return append(profiles, *profile), true
		})
}

// DeleteByID は指定IDのプロフィールをコレクションから取り除く。
// 参照するタスクの削除は呼び出し側の責務。
func (r *LocalElderlyRepo) DeleteByID(ctx context.Context, id string) error {
	return mutateCollection(r.store, r.publisher, localstore.KeyElderly, notify.CollectionElderly,
		func(profiles []model.ElderlyProfile) ([]model.ElderlyProfile, bool) {
			kept := profiles[:0]
			for _, p := range profiles {
				if p.ID != id {
					kept = append(kept, p)
				}
			}
			return kept, true
		})
}

// compile-time interface check
var _ ElderlyRepository = (*LocalElderlyRepo)(nil)
