// Package auth はログイン・サインアップ・セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/caresync/internal/crypto"
	"github.com/hitoshi/caresync/internal/model"
	"github.com/hitoshi/caresync/internal/repository"
)

// サインアップ時に割り当てる既定値。
const (
	defaultSignupColor = "bg-indigo-100 text-indigo-800"
	avatarURLFormat    = "https://api.dicebear.com/7.x/avataaars/svg?seed=%s&backgroundColor=b6e3f4"
)

// Service は認証に関するビジネスロジックを提供する。
// バックエンドがローカルかリモートかはリポジトリ実装が隠蔽する。
type Service struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository) *Service {
	return &Service{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
	}
}

// Login は識別子（メールアドレスまたはその@より前の部分）とパスワードで認証し、
// セッションとユーザーを返す。
// 識別子が未登録、またはパスワード不一致の場合はVALIDATIONエラーを返し、
// セッションには一切触れない。
// セッション発行後のプロフィール取得が失敗した場合、エラーはそのまま返るが
// セッションは既に作成されている（補償は行わない）。
func (s *Service) Login(ctx context.Context, login, password string) (*model.User, *model.Session, error) {
	cred, err := s.userRepo.FindCredentials(ctx, login)
	if err != nil {
		return nil, nil, err
	}
	if cred == nil {
		return nil, nil, model.NewValidationError("ユーザーが見つかりません。")
	}

	// 外部IdP経由のアカウントはパスワードを持たないため、ここでは認証できない
	if cred.PasswordHash == "" {
		return nil, nil, model.NewValidationError("パスワードが正しくありません。")
	}

	ok, err := crypto.VerifyPassword(password, cred.PasswordHash)
	if err != nil || !ok {
		return nil, nil, model.NewValidationError("パスワードが正しくありません。")
	}

	session, err := s.createSession(ctx, cred.UserID)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.FindByID(ctx, cred.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, model.NewNotFoundError("ユーザー", cred.UserID)
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return user, session, nil
}

// Signup は新規ユーザーを作成し、セッションを発行する。
// メールアドレスが既に登録済み（大文字小文字を区別しない）の場合は
// VALIDATIONエラーを返し、重複ユーザーは作成しない。
// リモートモードではアカウント作成とプロフィール作成が順に実行され、
// 2段階目の失敗時にアカウントは残る。呼び出し側はこの種のエラーを
// 「部分的に成功した可能性がある」ものとして扱うこと。
func (s *Service) Signup(ctx context.Context, name, email, password string) (*model.User, *model.Session, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if existing != nil {
		return nil, nil, model.NewValidationError("このメールアドレスは既に登録されています。")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		AvatarURL:    fmt.Sprintf(avatarURLFormat, url.QueryEscape(name)),
		Role:         model.RoleMember,
		Color:        defaultSignupColor,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("new user signed up",
		slog.String("user_id", user.ID),
		slog.String("email", email),
	)
	return user, session, nil
}

// Logout はセッションを破棄する。セッションが存在しない場合も成功として扱う。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return err
	}
	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// GetCurrentUser はセッションから現在のユーザーを取得する。
// セッションが無効、または参照先ユーザーが消えている場合はnilを返す。
func (s *Service) GetCurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return s.userRepo.FindByID(ctx, session.UserID)
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, userID string) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	session := &model.Session{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
