// Package contraction は陣痛記録の登録と間隔の解析を提供する。
package contraction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/vetracker/internal/model"
)

// TimestampLayout は陣痛の開始・終了時刻の入力形式。タイムゾーンは持たない。
const TimestampLayout = "2006-01-02 15:04:05"

const maxHourDigits = 6

var (
	// ErrInvalidTimestamp は時刻がTimestampLayoutに厳密に一致しない場合のエラー。
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrInvalidDuration は継続時間がH:M:S形式でない場合のエラー。
	ErrInvalidDuration = errors.New("invalid duration")
)

// ParseTimestamp は"YYYY-MM-DD HH:MM:SS"形式の時刻を解析する。
// 小数秒や前後の空白は受け付けない。
func ParseTimestamp(s string) (time.Time, error) {
	if len(s) != len(TimestampLayout) {
		return time.Time{}, ErrInvalidTimestamp
	}
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidTimestamp
	}
	return t, nil
}

// ParseDuration は"H:M:S"形式の継続時間を秒数に変換する。
// 各要素は数字のみで、Hは0以上、MとSは0〜59とする。
func ParseDuration(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, ErrInvalidDuration
	}

	var v [3]int
	for i, p := range parts {
		if p == "" || (i == 0 && len(p) > maxHourDigits) || (i > 0 && len(p) > 2) {
			return 0, ErrInvalidDuration
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return 0, ErrInvalidDuration
			}
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, ErrInvalidDuration
		}
		v[i] = n
	}

	h, m, sec := v[0], v[1], v[2]
	if m > 59 || sec > 59 {
		return 0, ErrInvalidDuration
	}
	return h*3600 + m*60 + sec, nil
}

// FormatDuration は秒数をParseDurationが受け付ける"H:MM:SS"形式にする。
func FormatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

// Gap は直前の記録の終了から新しい記録の開始までの秒数を返す。
// 直前の記録がない場合はnilを返す。重なりがある場合は負の値になる。
func Gap(start time.Time, prev *model.Contraction) *int {
	if prev == nil {
		return nil
	}
	gap := int(start.Sub(prev.StoppedAt) / time.Second)
	return &gap
}

// ClusterResult は間隔の集中判定の結果。
type ClusterResult struct {
	Triggered bool
	// Intervals は新しい順に、各記録の開始と1つ前の記録の終了の差（秒）。
	Intervals []int
}

// CheckClustering は開始時刻の降順に並んだ記録の先頭window件を調べ、
// 隣り合う記録の間隔がすべてthreshold以下であれば警告対象と判定する。
// 記録がwindow件に満たない場合は判定しない。負の間隔もそのまま比較に用いる。
func CheckClustering(latest []*model.Contraction, window int, threshold time.Duration) ClusterResult {
	if window < 2 || len(latest) < window {
		return ClusterResult{}
	}

	limit := int(threshold / time.Second)
	intervals := make([]int, 0, window-1)
	triggered := true
	for i := 0; i < window-1; i++ {
		gap := int(latest[i].StartedAt.Sub(latest[i+1].StoppedAt) / time.Second)
		intervals = append(intervals, gap)
		if gap > limit {
			triggered = false
		}
	}

	return ClusterResult{Triggered: triggered, Intervals: intervals}
}
