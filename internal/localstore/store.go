// Package localstore はローカルモード用の耐久KVストアを提供する。
//
// SQLiteファイル上の単一テーブルに、コレクションごとのJSONドキュメントを
// バージョン付きキーで保存する。スキーマに互換性のない変更を加える場合は
// キーのバージョンサフィックスを上げ、マイグレーションせずに再シードさせる。
package localstore

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// コレクションごとの保存キー。
// 破壊的スキーマ変更時はバージョンを上げて再シードを強制する。
const (
	KeyUsers   = "caresync_users_v1"
	KeyElderly = "caresync_elderly_v1"
	KeyTasks   = "caresync_tasks_v1"
	KeySession = "caresync_session_v1"
)

// Store はSQLiteファイルに裏付けられたキーバリューストア。
// 全コレクション読み出し→変更→全コレクション書き込みの競合を防ぐため、
// プロセス内の書き込みはミューテックスで直列化する。
// プロセスをまたぐ同時書き込みに対する保護はない（既知の制限）。
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open は指定パスのSQLiteファイルを開き、KVテーブルを初期化する。
// ファイルが存在しない場合は新規作成される。
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	// 単一接続に制限する。modernc.org/sqliteは接続単位でロックするため、
	// 複数接続での同時書き込みはSQLITE_BUSYを誘発する。
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS kv (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize local store schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

// Get は指定キーの値を返す。キーが存在しない場合は(nil, false, nil)を返す。
func (s *Store) Get(key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(key)
}

func (s *Store) get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return []byte(value), true, nil
}

// Put は指定キーの値を丸ごと上書きする。
func (s *Store) Put(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(key, value)
}

func (s *Store) put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(value),
	)
	if err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete は指定キーを削除する。キーが存在しない場合も成功として扱う。
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// PutIfAbsent はキーが存在しない場合のみ値を書き込み、書き込んだかどうかを返す。
// 初回シードで使用する。既存の（空であっても）コレクションは決して上書きしない。
func (s *Store) PutIfAbsent(key string, value []byte) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists, err := s.get(key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := s.put(key, value); err != nil {
		return false, err
	}
	return true, nil
}

// Update は read-modify-write を1回のロック区間で実行する。
// fnには現在値（キーが無い場合はnil)が渡され、返した値で上書きされる。
// fnがnilを返した場合は書き込みを行わない。
// ローカルモードのCRUDはすべてこの経路を通ることで、
// プロセス内の同一コレクションへの書き込みが失われないようにする。
func (s *Store) Update(key string, fn func(current []byte) ([]byte, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, _, err := s.get(key)
	if err != nil {
		return err
	}
	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}
	return s.put(key, next)
}
