// Package user はユーザープロフィールの参照を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/oralarith/internal/model"
	"github.com/hitoshi/oralarith/internal/repository"
)

// Service はプロフィール参照のサービス層。
// キャッシュが設定されている場合は読み取りをキャッシュ経由で行う。
type Service struct {
	profileRepo repository.ProfileRepository
	cache       repository.ProfileCache // nil可
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(profileRepo repository.ProfileRepository, cache repository.ProfileCache) *Service {
	return &Service{
		profileRepo: profileRepo,
		cache:       cache,
	}
}

// Get はプロフィールの全フィールドを返す。
// キャッシュの読み書きに失敗した場合はログ出力のみ行い、リポジトリの結果を返す。
// DB読み取りの前に世代番号を取り、その間に書き込みがあった場合は書き戻さない。
func (s *Service) Get(ctx context.Context, userID int64) (*model.UserProfile, error) {
	// 1. キャッシュ参照
	gen, canStore := int64(0), false
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			slog.Warn("プロフィールキャッシュの取得に失敗しました",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		} else if cached != nil {
			return cached, nil
		}

		if g, err := s.cache.Generation(ctx, userID); err == nil {
			gen, canStore = g, true
		}
	}

	// 2. リポジトリ参照
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if profile == nil {
		return nil, model.NewRecordNotFoundError()
	}

	// 3. キャッシュ格納（世代が変わっていなければ）
	if canStore {
		stored, err := s.cache.SetIfGeneration(ctx, profile, gen)
		switch {
		case err != nil:
			slog.Warn("プロフィールのキャッシュに失敗しました",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		case !stored:
			slog.Debug("読み取り中に更新があったためキャッシュを見送りました", slog.Int64("user_id", userID))
		}
	}

	return profile, nil
}
