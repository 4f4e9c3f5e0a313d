package repository

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
)

// ReadRetryConfig は参照系クエリの再試行設定。
// 書き込みは冪等でないため再試行しない。
var ReadRetryConfig = retry.Config{
	MaxAttempts:   3,
	InitialDelay:  50 * time.Millisecond,
	MaxDelay:      500 * time.Millisecond,
	Multiplier:    2.0,
	BackoffPolicy: retry.BackoffExponential,
	Jitter:        true,
	IsRetryable:   IsTransient,
}

// withReadRetry は一時的な障害に限りfnを再試行する。
func withReadRetry[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	r := retry.New[T](ReadRetryConfig)
	return r.Do(ctx, fn)
}
