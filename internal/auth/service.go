// Package auth はアカウント登録、ログイン、セッション管理を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/oralarith/internal/metrics"
	"github.com/hitoshi/oralarith/internal/model"
	"github.com/hitoshi/oralarith/internal/repository"
	"github.com/hitoshi/oralarith/internal/security"
)

// PasswordHasher はパスワードハッシュの生成と照合のインターフェース。
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
	// VerifyDummy は未登録アカウントに対して照合と同等の時間を消費する。
	VerifyDummy(password string)
}

// TextSanitizer はユーザー入力の表示用テキストを無害化する。
type TextSanitizer interface {
	Sanitize(s string) string
}

// LoginResult はログイン成功時に返す値。
type LoginResult struct {
	Token    string
	TTL      int64 // 秒
	Nickname string
}

// Service は登録・ログインのビジネスロジックを提供する。
type Service struct {
	accountRepo repository.AccountRepository
	profileRepo repository.ProfileRepository
	sessions    *SessionManager
	hasher      PasswordHasher
	sanitizer   TextSanitizer
	metrics     metrics.MetricsCollector

	newUserID func() (int64, error)
	now       func() time.Time
}

// NewService はServiceを生成する。
func NewService(
	accountRepo repository.AccountRepository,
	profileRepo repository.ProfileRepository,
	sessions *SessionManager,
	hasher PasswordHasher,
	sanitizer TextSanitizer,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &Service{
		accountRepo: accountRepo,
		profileRepo: profileRepo,
		sessions:    sessions,
		hasher:      hasher,
		sanitizer:   sanitizer,
		metrics:     mc,
		newUserID:   security.NewUserID,
		now:         time.Now,
	}
}

// Register はアカウントを登録する。
// 認証情報とプロフィールは同一トランザクションで作成され、片方だけが残ることはない。
func (s *Service) Register(ctx context.Context, email, nickname, password string) error {
	// 1. 入力検証
	switch {
	case email == "":
		return model.NewMissingParameterError("email")
	case nickname == "":
		return model.NewMissingParameterError("nickname")
	case password == "":
		return model.NewMissingParameterError("password")
	}

	nickname = s.sanitizer.Sanitize(nickname)
	if nickname == "" {
		return model.NewMissingParameterError("nickname")
	}

	// 2. パスワードのハッシュ化
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, security.ErrPasswordTooLong) {
		return model.NewPasswordTooLongError()
	}
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// 3. user_idを割り当てて作成（衝突時は再生成）
	for attempt := 1; attempt <= repository.MaxIDAttempts; attempt++ {
		userID, err := s.newUserID()
		if err != nil {
			return fmt.Errorf("failed to generate user id: %w", err)
		}

		cred := &model.Credential{Email: email, PasswordHash: hash, UserID: userID}
		profile := model.NewUserProfile(userID, email, nickname, s.now())

		err = s.accountRepo.CreateAccount(ctx, cred, profile)
		switch {
		case err == nil:
			s.metrics.RecordRegistration()
			slog.Info("user registered", slog.Int64("user_id", userID))
			return nil
		case errors.Is(err, repository.ErrEmailTaken):
			return model.NewDuplicateEmailError()
		case errors.Is(err, repository.ErrConflict):
			s.metrics.RecordIDConflict(metrics.KindUserID)
			slog.Warn("user id collision, regenerating", slog.Int("attempt", attempt))
		default:
			return fmt.Errorf("failed to create account: %w", err)
		}
	}

	return fmt.Errorf("failed to assign user id: %w", repository.ErrRetriesExhausted)
}

// Login はメールアドレスとパスワードを照合し、セッションを発行する。
// メールアドレス未登録とパスワード不一致はどちらも同一のINVALID_CREDENTIALSを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	// 1. 入力検証
	switch {
	case email == "":
		return nil, model.NewMissingParameterError("email")
	case password == "":
		return nil, model.NewMissingParameterError("password")
	}

	// 2. 認証情報の照合
	cred, err := s.accountRepo.FindCredentialByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find credential: %w", err)
	}
	if cred == nil {
		s.hasher.VerifyDummy(password)
		s.metrics.RecordLogin(metrics.ResultFailure)
		return nil, model.NewInvalidCredentialsError()
	}
	if !s.hasher.Verify(password, cred.PasswordHash) {
		s.metrics.RecordLogin(metrics.ResultFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	// 3. ニックネーム取得
	profile, err := s.profileRepo.FindByID(ctx, cred.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}
	if profile == nil {
		return nil, fmt.Errorf("profile missing for user %d", cred.UserID)
	}

	// 4. セッション発行
	session, err := s.sessions.Issue(ctx, cred.UserID)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordLogin(metrics.ResultSuccess)
	slog.Info("user logged in", slog.Int64("user_id", cred.UserID))

	return &LoginResult{
		Token:    session.Token,
		TTL:      int64(model.SessionTTL / time.Second),
		Nickname: profile.Nickname,
	}, nil
}
