package model

import (
	"encoding/json"
	"time"
)

// QuizRecord は1回分のクイズ結果を表す。作成後は変更されない。
// PlayerTwoIDs は対戦参加機能のために予約されており、作成時は空。
type QuizRecord struct {
	RecordID         string          `json:"qid"`
	Mode             string          `json:"mode"`
	StartTime        int64           `json:"quiz_time"`
	Questions        json.RawMessage `json:"questions"`
	QuestionCount    int             `json:"question_count"`
	CorrectCount     int             `json:"correct_count"`
	UsedTime         int64           `json:"used_time"`
	IsCompetition    bool            `json:"is_competition"`
	AllowCompetition bool            `json:"allow_competition"`
	PlayerOneID      int64           `json:"p1_uid"`
	PlayerTwoIDs     []int64         `json:"p2_uid"`
	CreatedAt        time.Time       `json:"-"`
}
