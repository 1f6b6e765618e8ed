package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/oralarith/internal/model"
)

// PostgresAccountRepo はPostgreSQLを使用した認証情報リポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindCredentialByEmail はメールアドレスで認証情報を取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindCredentialByEmail(ctx context.Context, email string) (*model.Credential, error) {
	cred := &model.Credential{}
	err := r.db.QueryRowContext(ctx,
		`SELECT email, password_hash, user_id FROM credentials WHERE email = $1`,
		email,
	).Scan(&cred.Email, &cred.PasswordHash, &cred.UserID)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr("failed to find credential", err)
	}

	return cred, nil
}

// CreateAccount はプロフィールと認証情報を同一トランザクションで作成する。
// 先にプロフィールを挿入してuser_idを確保し、次に認証情報を挿入する。
// どちらかが衝突した場合はロールバックし、何も残さない。
func (r *PostgresAccountRepo) CreateAccount(ctx context.Context, cred *model.Credential, profile *model.UserProfile) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapErr("failed to begin transaction", err)
	}
	defer tx.Rollback()

	// プロフィールを作成（user_idの衝突はErrConflict）
	res, err := tx.ExecContext(ctx,
		`INSERT INTO profiles (user_id, email, nickname, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO NOTHING`,
		profile.UserID, profile.Email, profile.Nickname, profile.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to insert profile", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapErr("failed to get rows affected", err)
	} else if n == 0 {
		return ErrConflict
	}

	// 認証情報を作成（メールアドレスの衝突はErrEmailTaken）
	res, err = tx.ExecContext(ctx,
		`INSERT INTO credentials (email, password_hash, user_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email) DO NOTHING`,
		cred.Email, cred.PasswordHash, cred.UserID, profile.CreatedAt,
	)
	if err != nil {
		return wrapErr("failed to insert credential", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return wrapErr("failed to get rows affected", err)
	} else if n == 0 {
		return ErrEmailTaken
	}

	if err := tx.Commit(); err != nil {
		return wrapErr("failed to commit transaction", err)
	}

	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
