package repository

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hitoshi/caresync/internal/localstore"
	"github.com/hitoshi/caresync/internal/model"
)

// LocalSessionRepo はローカルKVストアを使用したセッションリポジトリ。
// スロットは単一値であり、同時にアクティブなセッションは1つだけ。
// Createは既存のセッションを黙って上書きする。
// セッションは3コレクションの外にある唯一の状態のため、変更通知は発行しない。
type LocalSessionRepo struct {
	store *localstore.Store
}

// NewLocalSessionRepo はLocalSessionRepoを生成する。
func NewLocalSessionRepo(store *localstore.Store) *LocalSessionRepo {
	return &LocalSessionRepo{store: store}
}

// Create はセッションをスロットに保存する。既存セッションは上書きされる。
func (r *LocalSessionRepo) Create(ctx context.Context, session *model.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return model.NewStorageFailureError(err)
	}
	if err := r.store.Put(localstore.KeySession, raw); err != nil {
		return model.NewStorageFailureError(err)
	}
	return nil
}

// FindByID はスロットのセッションがIDと一致する場合にそれを返す。
// スロットが空・壊れている・ID不一致の場合はnilを返す。
func (r *LocalSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	raw, exists, err := r.store.Get(localstore.KeySession)
	if err != nil {
		return nil, model.NewStorageFailureError(err)
	}
	if !exists {
		return nil, nil
	}

	var session model.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		slog.Warn("corrupt session slot, treating as logged out",
			slog.String("error", err.Error()),
		)
		return nil, nil
	}
	if session.ID != id {
		return nil, nil
	}
	return &session, nil
}

// DeleteByID はスロットのセッションがIDと一致する場合にスロットを空にする。
func (r *LocalSessionRepo) DeleteByID(ctx context.Context, id string) error {
	session, err := r.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return nil
	}
	if err := r.store.Delete(localstore.KeySession); err != nil {
		return model.NewStorageFailureError(err)
	}
	return nil
}

// compile-time interface check
var _ SessionRepository = (*LocalSessionRepo)(nil)
