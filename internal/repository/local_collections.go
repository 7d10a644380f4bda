package repository

import (
	"encoding/json"
	"log/slog"

	"github.com/hitoshi/caresync/internal/localstore"
	"github.com/hitoshi/caresync/internal/model"
)

// ローカル実装はコレクションごとのJSON配列をKVスロットに保存する。
// 読み出しは外向きに失敗しない: スロットが存在しない、または壊れている場合は
// 空のコレクションを返す（壊れたデータは次回の書き込みで上書きされる）。
// 書き込みはコレクション全体の上書きであり、失敗はSTORAGE_FAILUREとして返る。

// readCollection はスロットのJSON配列を復元する。絶対に失敗しない。
func readCollection[T any](store *localstore.Store, key string) []T {
	raw, exists, err := store.Get(key)
	if err != nil {
		slog.Warn("failed to read local collection, treating as empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if !exists {
		return nil
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		slog.Warn("corrupt local collection, treating as empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return items
}

// mutateCollection はコレクション全体のread-modify-writeを1回のロック区間で行い、
// 成功時にコレクション名で変更通知を発行する。
// fnがfalseを返した場合は書き込みと通知を行わない（対象なしの削除など
// 変化がない操作でも、元実装に合わせて書き込みは行うため通常はtrueを返す）。
func mutateCollection[T any](store *localstore.Store, publisher publisher, key, collection string, fn func(items []T) ([]T, bool)) error {
	changed := false
	err := store.Update(key, func(current []byte) ([]byte, error) {
		var items []T
		if current != nil {
			if err := json.Unmarshal(current, &items); err != nil {
				slog.Warn("corrupt local collection, rebuilding",
					slog.String("key", key),
					slog.String("error", err.Error()),
				)
				items = nil
			}
		}

		next, write := fn(items)
		if !write {
			return nil, nil
		}
		changed = true

		raw, err := json.Marshal(next)
		if err != nil {
			return nil, err
		}
		return raw, nil
	})
	if err != nil {
		return model.NewStorageFailureError(err)
	}

	if changed && publisher != nil {
		publisher.Publish(collection)
	}
	return nil
}

// publisher はnotify.Publisherと同じ契約のローカルインターフェース。
// repositoryからnotifyへの依存を最小の面に保つ。
type publisher interface {
	Publish(collection string)
}
