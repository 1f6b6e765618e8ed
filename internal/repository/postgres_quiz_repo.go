package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/oralarith/internal/model"
	"github.com/lib/pq"
)

// PostgresQuizRepo はPostgreSQLを使用したクイズ結果リポジトリ。
type PostgresQuizRepo struct {
	db *sql.DB
}

// NewPostgresQuizRepo はPostgresQuizRepoを生成する。
func NewPostgresQuizRepo(db *sql.DB) *PostgresQuizRepo {
	return &PostgresQuizRepo{db: db}
}

// CreateAndAppend はクイズ結果を作成し、プロフィールの集計を同一トランザクションで更新する。
//
// 処理順序:
//  1. プロフィールのquiz_record_idsへrecord_idを追記し、total_attemptsを1加算する（単一UPDATE、行ロック取得）
//  2. クイズ結果をINSERT ... ON CONFLICT DO NOTHINGで挿入する
//
// 2で衝突した場合は1もロールバックされるため、両フィールドは常に同時に変化する。
func (r *PostgresQuizRepo) CreateAndAppend(ctx context.Context, record *model.QuizRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE profiles
		 SET quiz_record_ids = array_append(quiz_record_ids, $2),
		     total_attempts = total_attempts + 1
		 WHERE user_id = $1`,
		record.PlayerOneID, record.RecordID,
	)
	if err != nil {
		return wrapErr("failed to update profile aggregates", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapErr("failed to get rows affected", err)
	} else if n == 0 {
		return ErrNotFound
	}

	res, err = tx.ExecContext(ctx,
		`INSERT INTO quiz_records (
		     record_id, mode, start_time, questions, question_count, correct_count,
		     used_time, is_competition, allow_competition, player_one_id, player_two_ids, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12)
		 ON CONFLICT (record_id) DO NOTHING`,
		record.RecordID, record.Mode, record.StartTime, string(record.Questions),
		record.QuestionCount, record.CorrectCount, record.UsedTime,
		record.IsCompetition, record.AllowCompetition, record.PlayerOneID, pq.Array(playerTwoIDs(record)),
		record.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to insert quiz record", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapErr("failed to get rows affected", err)
	} else if n == 0 {
		return ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit transaction", err)
	}

	return nil
}

// playerTwoIDs はNOT NULL列に対応するため、nilを空配列に置き換える。
func playerTwoIDs(record *model.QuizRecord) []int64 {
	if record.PlayerTwoIDs == nil {
		return []int64{}
	}
	return record.PlayerTwoIDs
}

// compile-time interface check
var _ QuizRepository = (*PostgresQuizRepo)(nil)
