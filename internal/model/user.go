// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限を表す。
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMember Role = "MEMBER"
)

// IsValid はRoleが定義済みの値かどうかを返す。
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// User は介護チームのメンバーを表す。
// PasswordHashは外部IdP経由で認証されたユーザーの場合は空文字列になる。
// JSONタグはローカルストアの永続化形式。APIレスポンスには
// ハンドラー層のレスポンス構造体を使い、ハッシュを外に出さないこと。
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash,omitempty"`
	AvatarURL    string `json:"avatarUrl"`
	Role         Role   `json:"role"`
	Color        string `json:"color"`
}

// Session はログイン中のユーザーを指すセッションを表す。
// 有効期限は持たない。期限管理が必要な場合は認証プロバイダー側が所有する。
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
