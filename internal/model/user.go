// Package model はドメインモデルを定義する。
package model

import "time"

// UserIDMin と UserIDMax は8桁ユーザーIDの範囲を表す。
const (
	UserIDMin int64 = 10000000
	UserIDMax int64 = 99999999
)

// Credential はメールアドレスとパスワードハッシュの紐付けを表す。
// 登録時に作成され、以降は変更されない。
type Credential struct {
	Email        string
	PasswordHash string
	UserID       int64
}

// Mistake は誤答1件を表す。
type Mistake struct {
	Question      string `json:"question"`
	UserAnswer    string `json:"userAnswer"`
	CorrectAnswer string `json:"correctAnswer"`
}

// UserProfile はユーザーの集計情報を表す。
// QuizRecordIDs と Mistakes は追記のみで、挿入順を保持する。
type UserProfile struct {
	UserID           int64     `json:"uid"`
	Email            string    `json:"email"`
	Nickname         string    `json:"nickname"`
	TotalAttempts    int       `json:"total"`
	CompetitionTotal int       `json:"competition_total"`
	CompetitionWins  int       `json:"competition_win"`
	QuizRecordIDs    []string  `json:"qid"`
	Mistakes         []Mistake `json:"mistake"`
	CreatedAt        time.Time `json:"-"`
}

// NewUserProfile は登録直後の空の集計を持つプロフィールを生成する。
func NewUserProfile(userID int64, email, nickname string, now time.Time) *UserProfile {
	return &UserProfile{
		UserID:        userID,
		Email:         email,
		Nickname:      nickname,
		QuizRecordIDs: []string{},
		Mistakes:      []Mistake{},
		CreatedAt:     now,
	}
}
