package model

import "time"

// NoteKind はノートの種別を表す。
type NoteKind string

const (
	// NoteKindNote は利用者が入力する通常のメモ。
	NoteKindNote NoteKind = "note"
	// NoteKindWarning はシステムが生成する臨床的な警告。
	NoteKindWarning NoteKind = "warning"
)

// Note は利用者に紐づく臨床ノートを表す。
type Note struct {
	ID        string
	UserID    string
	NotedAt   time.Time
	Kind      NoteKind
	Body      string
	CreatedAt time.Time
}
