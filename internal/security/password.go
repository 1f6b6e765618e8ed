package security

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost はbcryptのコストパラメータ。設定では変更できない。
const PasswordCost = 12

// MaxPasswordBytes はbcryptが扱えるパスワードの最大バイト数。
const MaxPasswordBytes = 72

// ErrPasswordTooLong はパスワードがMaxPasswordBytesを超えることを示す。
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// BcryptHasher はbcryptによるソルト付き適応型ハッシュを提供する。
type BcryptHasher struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewBcryptHasher はPasswordCostを使用するBcryptHasherを生成する。
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: PasswordCost}
}

// Hash はパスワードのbcryptハッシュを返す。ソルトは呼び出しごとに生成される。
func (h *BcryptHasher) Hash(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify はパスワードがハッシュと一致するかを定数時間で比較する。
// ハッシュが不正な形式の場合も不一致として扱う。
func (h *BcryptHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyDummy は未登録メールアドレスに対してダミーハッシュとの比較を行う。
// 登録済みの場合と同程度の時間を消費させ、応答時間からアカウントの存在が推測されないようにする。
func (h *BcryptHasher) VerifyDummy(password string) {
	h.dummyOnce.Do(func() {
		h.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("oralarith-dummy-password"), h.cost)
	})
	_ = bcrypt.CompareHashAndPassword(h.dummyHash, []byte(password))
}
