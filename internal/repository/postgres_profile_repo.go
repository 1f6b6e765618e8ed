package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hitoshi/oralarith/internal/model"
	"github.com/lib/pq"
)

// PostgresProfileRepo はPostgreSQLを使用したプロフィールリポジトリ。
type PostgresProfileRepo struct {
	db *sql.DB
}

// NewPostgresProfileRepo はPostgresProfileRepoを生成する。
func NewPostgresProfileRepo(db *sql.DB) *PostgresProfileRepo {
	return &PostgresProfileRepo{db: db}
}

// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
func (r *PostgresProfileRepo) FindByID(ctx context.Context, userID int64) (*model.UserProfile, error) {
	p := &model.UserProfile{}
	var mistakes []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, email, nickname, total_attempts, competition_total, competition_wins,
		        quiz_record_ids, mistakes, created_at
		 FROM profiles
		 WHERE user_id = $1`,
		userID,
	).Scan(
		&p.UserID, &p.Email, &p.Nickname, &p.TotalAttempts, &p.CompetitionTotal, &p.CompetitionWins,
		pq.Array(&p.QuizRecordIDs), &mistakes, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("failed to find profile", err)
	}

	if err := json.Unmarshal(mistakes, &p.Mistakes); err != nil {
		return nil, fmt.Errorf("failed to decode mistakes: %w", err)
	}
	if p.QuizRecordIDs == nil {
		p.QuizRecordIDs = []string{}
	}
	if p.Mistakes == nil {
		p.Mistakes = []model.Mistake{}
	}

	return p, nil
}

// AppendMistake は誤答を1件、mistakes配列の末尾に追加する。
// jsonbの連結演算子による単一UPDATEで行うため、同一ユーザーへの並行呼び出しでも更新が失われない。
func (r *PostgresProfileRepo) AppendMistake(ctx context.Context, userID int64, mistake model.Mistake) error {
	delta, err := json.Marshal([]model.Mistake{mistake})
	if err != nil {
		return fmt.Errorf("failed to encode mistake: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET mistakes = mistakes || $2::jsonb WHERE user_id = $1`,
		userID, string(delta),
	)
	if err != nil {
		return wrapErr("failed to append mistake", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("failed to get rows affected", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// compile-time interface check
var _ ProfileRepository = (*PostgresProfileRepo)(nil)
