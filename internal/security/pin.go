package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	pinMinLength = 4
	pinMaxLength = 8
)

// PinHasher はbcryptによるPINのハッシュ化と照合を行う。
type PinHasher struct {
	cost int
}

// NewPinHasher はPinHasherを生成する。costが0以下の場合はbcrypt.DefaultCostを使用する。
func NewPinHasher(cost int) *PinHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &PinHasher{cost: cost}
}

// Hash はPINのbcryptハッシュを返す。
func (h *PinHasher) Hash(pin string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash pin: %w", err)
	}
	return string(hashed), nil
}

// Verify はPINがハッシュと一致するかを返す。
// 不一致以外のエラー（ハッシュの破損など）もfalseとして扱い、エラーで返す。
func (h *PinHasher) Verify(hash, pin string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify pin: %w", err)
}

// ValidPin はPINが4〜8桁の数字のみで構成されているかを返す。
func ValidPin(pin string) bool {
	if len(pin) < pinMinLength || len(pin) > pinMaxLength {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
