package model

import "time"

// SessionTTL はセッションの有効期間。設定では変更できない。
const SessionTTL = 7 * 24 * time.Hour

// Session はユーザーのログインセッションを表す。
// 作成後は変更されず、有効性は Expiration と現在時刻の比較のみで決まる。
type Session struct {
	Token      string
	UserID     int64
	Expiration int64 // UNIX秒
}

// ExpiredAt は時刻nowにおいてセッションが期限切れかどうかを返す。
// now >= Expiration で期限切れとし、一度期限切れになったセッションが有効に戻ることはない。
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.Unix() >= s.Expiration
}
