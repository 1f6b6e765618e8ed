// Package quiz はクイズ結果と誤答履歴の保存を提供する。
package quiz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/oralarith/internal/metrics"
	"github.com/hitoshi/oralarith/internal/model"
	"github.com/hitoshi/oralarith/internal/repository"
)

// SaveQuizInput はクイズ結果保存の入力。
// ポインタのフィールドは必須で、nilは未指定を表す。真偽値は未指定時false。
type SaveQuizInput struct {
	Mode             *string
	StartTime        *int64
	Questions        json.RawMessage
	QuestionCount    *int
	CorrectCount     *int
	UsedTime         *int64
	IsCompetition    bool
	AllowCompetition bool
}

// SaveMistakeInput は誤答保存の入力。nilと空文字列は未指定として扱う。
type SaveMistakeInput struct {
	Question      *string
	UserAnswer    *string
	CorrectAnswer *string
}

// Service はクイズ結果・誤答保存のサービス層。
type Service struct {
	quizRepo    repository.QuizRepository
	profileRepo repository.ProfileRepository
	cache       repository.ProfileCache // nil可
	metrics     metrics.MetricsCollector

	newRecordID func() string
	now         func() time.Time
}

// NewService はServiceを生成する。cacheがnilの場合はキャッシュ破棄を行わない。
func NewService(
	quizRepo repository.QuizRepository,
	profileRepo repository.ProfileRepository,
	cache repository.ProfileCache,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.NopCollector{}
	}
	return &Service{
		quizRepo:    quizRepo,
		profileRepo: profileRepo,
		cache:       cache,
		metrics:     mc,
		newRecordID: uuid.NewString,
		now:         time.Now,
	}
}

// SaveQuiz はクイズ結果を保存し、プロフィールのquiz_record_idsとtotal_attemptsを同時に更新する。
// 保存したrecord_idを返す。
func (s *Service) SaveQuiz(ctx context.Context, userID int64, in SaveQuizInput) (string, error) {
	// 1. 入力検証
	if param := missingQuizParam(in); param != "" {
		return "", model.NewMissingParameterError(param)
	}

	// 2. record_idを割り当てて保存（衝突時は再生成）
	for attempt := 1; attempt <= repository.MaxIDAttempts; attempt++ {
		record := &model.QuizRecord{
			RecordID:         s.newRecordID(),
			Mode:             *in.Mode,
			StartTime:        *in.StartTime,
			Questions:        in.Questions,
			QuestionCount:    *in.QuestionCount,
			CorrectCount:     *in.CorrectCount,
			UsedTime:         *in.UsedTime,
			IsCompetition:    in.IsCompetition,
			AllowCompetition: in.AllowCompetition,
			PlayerOneID:      userID,
			PlayerTwoIDs:     []int64{},
			CreatedAt:        s.now(),
		}

		err := s.quizRepo.CreateAndAppend(ctx, record)
		switch {
		case err == nil:
			s.metrics.RecordQuizRecordSaved()
			s.invalidate(ctx, userID)
			slog.Info("quiz record saved",
				slog.Int64("user_id", userID),
				slog.String("record_id", record.RecordID),
			)
			return record.RecordID, nil
		case errors.Is(err, repository.ErrNotFound):
			return "", model.NewRecordNotFoundError()
		case errors.Is(err, repository.ErrConflict):
			s.metrics.RecordIDConflict(metrics.KindRecordID)
			slog.Warn("record id collision, regenerating", slog.Int("attempt", attempt))
		default:
			return "", fmt.Errorf("failed to save quiz record: %w", err)
		}
	}

	return "", fmt.Errorf("failed to assign record id: %w", repository.ErrRetriesExhausted)
}

// SaveMistake は誤答を1件、プロフィールのmistakesの末尾に追加する。
// 未指定・空文字列のフィールドはMissingParameter。数値の0（"0"）は正当な解答として受け付ける。
func (s *Service) SaveMistake(ctx context.Context, userID int64, in SaveMistakeInput) error {
	switch {
	case isBlank(in.Question):
		return model.NewMissingParameterError("question")
	case isBlank(in.UserAnswer):
		return model.NewMissingParameterError("userAnswer")
	case isBlank(in.CorrectAnswer):
		return model.NewMissingParameterError("correctAnswer")
	}

	mistake := model.Mistake{
		Question:      *in.Question,
		UserAnswer:    *in.UserAnswer,
		CorrectAnswer: *in.CorrectAnswer,
	}

	err := s.profileRepo.AppendMistake(ctx, userID, mistake)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewRecordNotFoundError()
	}
	if err != nil {
		return fmt.Errorf("failed to save mistake: %w", err)
	}

	s.metrics.RecordMistakeSaved()
	s.invalidate(ctx, userID)
	slog.Info("mistake saved", slog.Int64("user_id", userID))
	return nil
}

// invalidate はコミット後にプロフィールキャッシュの世代を進めて破棄する。失敗してもログ出力のみ行う。
func (s *Service) invalidate(ctx context.Context, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		slog.Warn("failed to invalidate profile cache",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
	}
}

// missingQuizParam は最初に見つかった未指定の必須パラメータ名を返す。すべて揃っていれば空文字列。
func missingQuizParam(in SaveQuizInput) string {
	switch {
	case in.Mode == nil:
		return "mode"
	case in.StartTime == nil:
		return "startTime"
	case isAbsentJSON(in.Questions):
		return "questions"
	case in.QuestionCount == nil:
		return "questionCount"
	case in.CorrectCount == nil:
		return "correctCount"
	case in.UsedTime == nil:
		return "elapsedTime"
	}
	return ""
}

func isBlank(p *string) bool {
	return p == nil || *p == ""
}

// isAbsentJSON は生のJSON値が未指定またはnullかを判定する。
func isAbsentJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}
