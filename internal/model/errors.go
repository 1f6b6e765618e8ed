// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, quiz, system
	Action   string // ユーザー向け対処方法
	Err      error  // 原因エラー（ログ用、レスポンスには含めない）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap は原因エラーを返す。
func (e *APIError) Unwrap() error {
	return e.Err
}

// 定義済みエラーコード
const (
	ErrCodeMissingParameter      = "MISSING_PARAMETER"
	ErrCodeDuplicateEmail        = "DUPLICATE_EMAIL"
	ErrCodeInvalidCredentials    = "INVALID_CREDENTIALS"
	ErrCodeSessionNotFound       = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired        = "SESSION_EXPIRED"
	ErrCodeRecordNotFound        = "RECORD_NOT_FOUND"
	ErrCodeRepositoryUnavailable = "REPOSITORY_UNAVAILABLE"
	ErrCodeUnknownType           = "UNKNOWN_TYPE"
	ErrCodeInvalidBody           = "INVALID_BODY"
	ErrCodePasswordTooLong       = "PASSWORD_TOO_LONG"
)

// IsCode はerrチェーン内のAPIErrorが指定コードを持つかを判定する。
func IsCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}

// NewMissingParameterError は必須パラメータ欠落エラーを生成する。
// paramには欠落したパラメータ名を渡す（メッセージには含めない）。
func NewMissingParameterError(param string) *APIError {
	return &APIError{
		Code:     ErrCodeMissingParameter,
		Message:  "Missing parameter",
		Category: "validation",
		Action:   fmt.Sprintf("Provide a value for %q.", param),
	}
}

// NewDuplicateEmailError は登録済みメールアドレスのエラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "Email already registered",
		Category: "auth",
		Action:   "Log in with this email or register with a different one.",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// メールアドレス未登録とパスワード不一致で同一の値を返す（アカウント列挙対策）。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password",
		Category: "auth",
		Action:   "Check your email and password and try again.",
	}
}

// NewSessionNotFoundError はセッション未検出エラーを生成する。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionNotFound,
		Message:  "Session not found",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewSessionExpiredError はセッション期限切れエラーを生成する。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "Session expired",
		Category: "auth",
		Action:   "Log in again.",
	}
}

// NewRecordNotFoundError はレコード未検出エラーを生成する。
func NewRecordNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRecordNotFound,
		Message:  "Record not found",
		Category: "quiz",
		Action:   "Log in again.",
	}
}

// NewRepositoryUnavailableError はストレージ到達不能エラーを生成する。
func NewRepositoryUnavailableError(cause error) *APIError {
	return &APIError{
		Code:     ErrCodeRepositoryUnavailable,
		Message:  "Storage temporarily unavailable",
		Category: "system",
		Action:   "Please wait and try again.",
		Err:      cause,
	}
}

// NewUnknownTypeError はリクエスト種別（typeパラメータ）が不正な場合のエラーを生成する。
func NewUnknownTypeError() *APIError {
	return &APIError{
		Code:     ErrCodeUnknownType,
		Message:  "Invalid parameter",
		Category: "validation",
		Action:   "Specify a supported type parameter.",
	}
}

// NewInvalidBodyError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidBodyError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBody,
		Message:  "Invalid request body",
		Category: "validation",
		Action:   "Send a JSON object.",
	}
}

// NewPasswordTooLongError はパスワードがハッシュ可能な長さを超えた場合のエラーを生成する。
func NewPasswordTooLongError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordTooLong,
		Message:  "Password too long",
		Category: "validation",
		Action:   "Use a password of at most 72 bytes.",
	}
}
