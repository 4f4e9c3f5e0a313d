package model

import "time"

// Contraction は1回分の陣痛（ve）の記録を表す。
// StartedAt/StoppedAt はタイムゾーンを持たないローカル時刻として扱う。
// IntervalSeconds は直前の陣痛の終了から今回の開始までの秒数で、初回はnil。
type Contraction struct {
	ID              string
	UserID          string
	StartedAt       time.Time
	StoppedAt       time.Time
	DurationSeconds int
	IntervalSeconds *int
	CreatedAt       time.Time
}
