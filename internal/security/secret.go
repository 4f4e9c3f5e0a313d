package security

import (
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// ErrInvalidCiphertext は封印済みシークレットを復号できない場合のエラー。
var ErrInvalidCiphertext = errors.New("invalid secret ciphertext")

// SecretProtector は識別用シークレット（CPR番号）の保存時保護ポリシー。
type SecretProtector interface {
	// Index はシークレットから決定的な検索キーを導出する。
	Index(secret string) string
	// Seal はシークレットを保存用に封印する。封印しないポリシーでは空文字列を返す。
	Seal(secret string) (string, error)
	// Open は封印されたシークレットを復号する。
	Open(ciphertext string) (string, error)
}

// NewSecretProtector は設定値から保護ポリシーを選択する。
// hexKeyが空の場合は暗号化を行わないPlainProtectorを返す。
func NewSecretProtector(hexKey string) (SecretProtector, error) {
	if hexKey == "" {
		return PlainProtector{}, nil
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("identity encryption key must be hex encoded: %w", err)
	}
	return NewSealingProtector(key)
}

// PlainProtector はシークレットをそのまま検索キーとし、封印しないポリシー。
type PlainProtector struct{}

// Index はシークレットをそのまま返す。
func (PlainProtector) Index(secret string) string { return secret }

// Seal は何も封印しない。
func (PlainProtector) Seal(string) (string, error) { return "", nil }

// Open は封印されたデータを扱わないため常にエラーを返す。
func (PlainProtector) Open(string) (string, error) { return "", ErrInvalidCiphertext }

// SealingProtector はHMAC-SHA256のブラインドインデックスと
// XChaCha20-Poly1305による封印を行うポリシー。
// 索引用と暗号化用の鍵はマスター鍵からHKDFで個別に導出する。
type SealingProtector struct {
	indexKey []byte
	aead     cipher.AEAD
}

// NewSealingProtector は32バイトのマスター鍵からSealingProtectorを生成する。
func NewSealingProtector(masterKey []byte) (*SealingProtector, error) {
	if len(masterKey) != chacha20poly1305.KeySize {
		return nil, fmt.Errorf("identity encryption key must be %d bytes, got %d", chacha20poly1305.KeySize, len(masterKey))
	}

	indexKey, err := deriveKey(masterKey, "vetracker secret index")
	if err != nil {
		return nil, err
	}
	sealKey, err := deriveKey(masterKey, "vetracker secret seal")
	if err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.NewX(sealKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	return &SealingProtector{indexKey: indexKey, aead: aead}, nil
}

func deriveKey(masterKey []byte, info string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(info)), key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	return key, nil
}

// Index はシークレットのHMAC-SHA256を16進文字列で返す。
func (p *SealingProtector) Index(secret string) string {
	mac := hmac.New(sha256.New, p.indexKey)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

// Seal はランダムなnonceでシークレットを暗号化し、nonce||ciphertextをbase64で返す。
func (p *SealingProtector) Seal(secret string) (string, error) {
	nonce := make([]byte, p.aead.NonceSize(), p.aead.NonceSize()+len(secret)+p.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := p.aead.Seal(nonce, nonce, []byte(secret), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Open はSealの出力を復号する。改ざんや鍵の不一致はErrInvalidCiphertextとなる。
func (p *SealingProtector) Open(ciphertext string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil || len(raw) < p.aead.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, body := raw[:p.aead.NonceSize()], raw[p.aead.NonceSize():]
	plain, err := p.aead.Open(nil, nonce, body, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plain), nil
}

var (
	_ SecretProtector = PlainProtector{}
	_ SecretProtector = (*SealingProtector)(nil)
)
