// Package model はドメインモデルを定義する。
package model

import "time"

// User は登録済みの利用者（妊婦）を表す。
// SecretIndex は識別用シークレット（CPR番号）の検索キーで、一意である。
// 暗号化ポリシーが有効な場合、シークレット本体は SecretCiphertext に封印して保持する。
type User struct {
	ID               string
	SecretIndex      string
	SecretCiphertext string
	Name             string
	PinHash          string
	CreatedAt        time.Time
}

// Session はトークンによるログインセッションを表す。
// ID はベアラートークンのSHA-256ダイジェストであり、トークン自体は保存しない。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// IsExpired は指定時刻の時点でセッションが失効しているかを返す。
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
