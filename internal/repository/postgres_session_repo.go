package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/oralarith/internal/model"
)

// PostgresSessionRepo はPostgreSQLを使用したセッションリポジトリ。
type PostgresSessionRepo struct {
	db *sql.DB
}

// NewPostgresSessionRepo はPostgresSessionRepoを生成する。
func NewPostgresSessionRepo(db *sql.DB) *PostgresSessionRepo {
	return &PostgresSessionRepo{db: db}
}

// Create はセッションを作成する。トークンが既存の場合はErrConflictを返す。
func (r *PostgresSessionRepo) Create(ctx context.Context, session *model.Session) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expiration)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO NOTHING`,
		session.Token, session.UserID, session.Expiration,
	)
	if err != nil {
		return wrapErr("failed to create session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr("failed to get rows affected", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// FindByToken は指定トークンのセッションを取得する。見つからない場合はnilを返す。
// 期限切れのセッションもそのまま返す（削除はクリーンアップジョブが行う）。
func (r *PostgresSessionRepo) FindByToken(ctx context.Context, token string) (*model.Session, error) {
	session := &model.Session{}
	err := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expiration FROM sessions WHERE token = $1`,
		token,
	).Scan(&session.Token, &session.UserID, &session.Expiration)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("failed to find session", err)
	}

	return session, nil
}

// compile-time interface check
var _ SessionRepository = (*PostgresSessionRepo)(nil)
