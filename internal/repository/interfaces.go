// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/hitoshi/vetracker/internal/model"
)

// UserRepository は利用者データの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDの利用者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindBySecretIndex はシークレットの検索キーで利用者を取得する。見つからない場合はnilを返す。
	FindBySecretIndex(ctx context.Context, secretIndex string) (*model.User, error)

	// Create は利用者を作成する。
	// secret_indexが既に存在する場合は一意制約違反のエラーを返す（IsUniqueViolationで判定可能）。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
// 有効期限の判定は呼び出し側の時計で行い、リポジトリは行の存在のみを扱う。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除し、削除が発生したかを返す。
	DeleteByID(ctx context.Context, id string) (bool, error)
	// DeleteExpired はnow時点で失効しているセッションをすべて削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// ContractionLedger は利用者ごとの陣痛記録の追記専用台帳。
// 時系列順序による追記の拒否は行わない。
type ContractionLedger interface {
	// Append は陣痛記録を追加し、採番したIDを返す。
	Append(ctx context.Context, c *model.Contraction) (string, error)

	// MostRecentBefore はinstantより厳密に前に終了した記録のうち、終了時刻が最も遅いものを返す。
	// 該当がない場合はnilを返す。
	MostRecentBefore(ctx context.Context, userID string, instant time.Time) (*model.Contraction, error)

	// LatestN は開始時刻の降順で最大n件の記録を返す。
	LatestN(ctx context.Context, userID string, n int) ([]*model.Contraction, error)
}

// ContractionRepository は台帳に利用者単位の排他実行を加えたインターフェース。
type ContractionRepository interface {
	ContractionLedger

	// WithIdentityLock は利用者単位のアドバイザリロックを取得したトランザクション内でfnを実行する。
	// fnに渡される台帳はトランザクションに束縛されており、fnが正常終了した場合のみコミットする。
	WithIdentityLock(ctx context.Context, userID string, fn func(ctx context.Context, ledger ContractionLedger) error) error
}

// NoteRepository は臨床ノートの永続化インターフェース。
type NoteRepository interface {
	// Create はノートを作成する。
	Create(ctx context.Context, note *model.Note) error
}

// AuditRepository は監査ログの永続化インターフェース。
type AuditRepository interface {
	// Create は監査ログを1件追加する。
	Create(ctx context.Context, entry *model.AuditEntry) error

	// DeleteOlderThan はcutoffより前に作成された監査ログを削除し、削除件数を返す。
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// dbtx は *sql.DB と *sql.Tx の共通メソッドを抽象化する。
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var (
	_ dbtx = (*sql.DB)(nil)
	_ dbtx = (*sql.Tx)(nil)
)
