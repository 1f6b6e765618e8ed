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

// SessionManager はセッショントークンの発行と検証を行う。
// セッションは作成後に変更されず、有効性は有効期限との比較のみで判定する。
type SessionManager struct {
	sessionRepo repository.SessionRepository
	metrics     metrics.MetricsCollector

	newToken func(userID int64, now time.Time) (string, error)
	now      func() time.Time
}

// NewSessionManager はSessionManagerを生成する。
func NewSessionManager(sessionRepo repository.SessionRepository, mc metrics.MetricsCollector) *SessionManager {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &SessionManager{
		sessionRepo: sessionRepo,
		metrics:     mc,
		newToken:    security.NewSessionToken,
		now:         time.Now,
	}
}

// Issue は指定ユーザーのセッションを発行し永続化する。
// トークンが既存セッションと衝突した場合は再生成して再試行する。
func (m *SessionManager) Issue(ctx context.Context, userID int64) (*model.Session, error) {
	for attempt := 1; attempt <= repository.MaxIDAttempts; attempt++ {
		now := m.now()
		token, err := m.newToken(userID, now)
		if err != nil {
			return nil, fmt.Errorf("failed to generate session token: %w", err)
		}

		session := &model.Session{
			Token:      token,
			UserID:     userID,
			Expiration: now.Add(model.SessionTTL).Unix(),
		}

		err = m.sessionRepo.Create(ctx, session)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("failed to save session: %w", err)
		}

		m.metrics.RecordIDConflict(metrics.KindSession)
		slog.Warn("session token collision, regenerating",
			slog.Int64("user_id", userID),
			slog.Int("attempt", attempt),
		)
	}

	return nil, fmt.Errorf("failed to issue session: %w", repository.ErrRetriesExhausted)
}

// Validate はトークンを検証し、紐づくユーザーIDを返す。
// トークンが空または未登録の場合はSESSION_NOT_FOUND、期限切れの場合はSESSION_EXPIREDを返す。
func (m *SessionManager) Validate(ctx context.Context, token string) (int64, error) {
	if token == "" {
		m.metrics.RecordSessionValidation(metrics.ResultMissing)
		return 0, model.NewSessionNotFoundError()
	}

	session, err := m.sessionRepo.FindByToken(ctx, token)
	if err != nil {
		return 0, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		m.metrics.RecordSessionValidation(metrics.ResultMissing)
		return 0, model.NewSessionNotFoundError()
	}

	if session.ExpiredAt(m.now()) {
		m.metrics.RecordSessionValidation(metrics.ResultExpired)
		return 0, model.NewSessionExpiredError()
	}

	m.metrics.RecordSessionValidation(metrics.ResultSuccess)
	return session.UserID, nil
}
