// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/oralarith/internal/model"
)

var (
	// ErrConflict は「存在しなければ挿入」が既存キーと衝突したことを示す。
	// 呼び出し側は識別子を再生成して再試行する。
	ErrConflict = errors.New("repository: key already exists")

	// ErrEmailTaken はメールアドレスが登録済みであることを示す。
	ErrEmailTaken = errors.New("repository: email already registered")

	// ErrNotFound は更新対象のレコードが存在しないことを示す。
	ErrNotFound = errors.New("repository: record not found")

	// ErrRetriesExhausted は識別子の再生成を上限回数まで繰り返しても衝突が解消しなかったことを示す。
	ErrRetriesExhausted = errors.New("repository: unique key retries exhausted")
)

// MaxIDAttempts は識別子衝突時に再生成を試みる上限回数。
const MaxIDAttempts = 5

// AccountRepository は認証情報とプロフィールの作成・参照インターフェース。
type AccountRepository interface {
	// FindCredentialByEmail はメールアドレスで認証情報を取得する。見つからない場合はnilを返す。
	FindCredentialByEmail(ctx context.Context, email string) (*model.Credential, error)

	// CreateAccount はプロフィールと認証情報を同一トランザクションで作成する。
	// user_idが既存の場合はErrConflict、メールアドレスが既存の場合はErrEmailTakenを返す。
	// いずれの場合も何も書き込まれない。
	CreateAccount(ctx context.Context, credential *model.Credential, profile *model.UserProfile) error
}

// ProfileRepository はユーザープロフィールの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定IDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID int64) (*model.UserProfile, error)

	// AppendMistake は誤答を1件、単一の原子的な更新で末尾に追加する。
	// プロフィールが存在しない場合はErrNotFoundを返す。
	AppendMistake(ctx context.Context, userID int64, mistake model.Mistake) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。トークンが既存の場合はErrConflictを返す。
	Create(ctx context.Context, session *model.Session) error

	// FindByToken は指定トークンのセッションを取得する。見つからない場合はnilを返す。
	// 期限切れかどうかの判定は呼び出し側で行う。
	FindByToken(ctx context.Context, token string) (*model.Session, error)
}

// QuizRepository はクイズ結果の永続化インターフェース。
type QuizRepository interface {
	// CreateAndAppend はクイズ結果を作成し、同一トランザクションで
	// プロフィールのquiz_record_idsへの追記とtotal_attemptsの加算を行う。
	// record_idが既存の場合はErrConflict、プロフィールが存在しない場合はErrNotFoundを返す。
	CreateAndAppend(ctx context.Context, record *model.QuizRecord) error
}

// ProfileCache はプロフィール読み取りのキャッシュインターフェース。
//
// 読み取り側はGeneration → DB読み取り → SetIfGenerationの順に呼ぶ。
// 書き込み側はコミット後にInvalidateを呼ぶ。間に書き込みが入った読み取りは書き戻されない。
type ProfileCache interface {
	// Get はキャッシュ済みプロフィールを返す。未キャッシュの場合はnilを返す。
	Get(ctx context.Context, userID int64) (*model.UserProfile, error)
	// Generation はユーザーの現在の世代番号を返す。
	Generation(ctx context.Context, userID int64) (int64, error)
	// SetIfGeneration は世代番号がgenから変わっていない場合のみキャッシュし、格納したかを返す。
	SetIfGeneration(ctx context.Context, profile *model.UserProfile, gen int64) (bool, error)
	// Invalidate は世代番号を進め、キャッシュを破棄する。
	Invalidate(ctx context.Context, userID int64) error
}
