package model

import "time"

// AuditAction は監査ログに記録する操作種別。
type AuditAction string

const (
	AuditActionUserCreated         AuditAction = "user_created"
	AuditActionLogin               AuditAction = "login"
	AuditActionLogout              AuditAction = "logout"
	AuditActionContractionRecorded AuditAction = "contraction_recorded"
	AuditActionClusteringWarning   AuditAction = "clustering_warning"
	AuditActionNoteAdded           AuditAction = "note_added"
)

// AuditEntry は監査ログの1レコード。
// UserID はユーザー作成前の失敗など、特定できない場合は空文字列となる。
type AuditEntry struct {
	ID        int64
	UserID    string
	Action    AuditAction
	Details   string
	CreatedAt time.Time
}
