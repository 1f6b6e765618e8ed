package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/oralarith/internal/model"
)

// sessionNonceDigits はセッショントークン生成に使う数値ノンスの桁数。
const sessionNonceDigits = 20

// NewUserID は8桁のユーザーIDを暗号論的乱数で生成する。
// 一意性はここでは保証しない。呼び出し側が挿入時の衝突検出で再試行する。
func NewUserID() (int64, error) {
	span := big.NewInt(model.UserIDMax - model.UserIDMin + 1)
	n, err := rand.Int(rand.Reader, span)
	if err != nil {
		return 0, fmt.Errorf("failed to generate user ID: %w", err)
	}
	return model.UserIDMin + n.Int64(), nil
}

// NewSessionToken はuser_id、発行時刻（UNIX秒）、数値ノンスを連結した文字列の
// SHA-256ダイジェストを16進文字列で返す。
func NewSessionToken(userID int64, now time.Time) (string, error) {
	nonce, err := randomDigits(sessionNonceDigits)
	if err != nil {
		return "", fmt.Errorf("failed to generate session nonce: %w", err)
	}

	raw := strconv.FormatInt(userID, 10) + strconv.FormatInt(now.Unix(), 10) + nonce
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:]), nil
}

// randomDigits はn桁の10進数字列を暗号論的乱数で生成する（先頭0を含む）。
func randomDigits(n int) (string, error) {
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
	v, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", err
	}
	s := v.String()
	if len(s) < n {
		s = strings.Repeat("0", n-len(s)) + s
	}
	return s, nil
}
