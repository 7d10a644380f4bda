package repository

import (
	"testing"
)

// 各Postgres実装が対応するリポジトリインターフェースを満たすことを検証
func TestPostgresRepos_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ ElderlyRepository = (*PostgresElderlyRepo)(nil)
	var _ TaskRepository = (*PostgresTaskRepo)(nil)
	var _ SessionRepository = (*PostgresSessionRepo)(nil)
}

// ローカル実装も同じインターフェース集合を満たすことを検証
// （モードによってサービス層の型が変わらないことの保証）
func TestLocalRepos_ImplementSameInterfaces(t *testing.T) {
	var _ UserRepository = (*LocalUserRepo)(nil)
	var _ ElderlyRepository = (*LocalElderlyRepo)(nil)
	var _ TaskRepository = (*LocalTaskRepo)(nil)
	var _ SessionRepository = (*LocalSessionRepo)(nil)
}

// コンストラクタがnil DBでも初期化だけは行えることを検証
func TestNewPostgresRepos_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresElderlyRepo(nil) == nil {
		t.Fatal("expected non-nil elderly repo")
	}
	if NewPostgresTaskRepo(nil) == nil {
		t.Fatal("expected non-nil task repo")
	}
	if NewPostgresSessionRepo(nil) == nil {
		t.Fatal("expected non-nil session repo")
	}
}
