package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/vetracker/internal/repository"
)

// コンパイル時にリポジトリが削除インターフェースを満たすことを検証する
var _ AuditPruner = (repository.AuditRepository)(nil)

type mockAuditPruner struct {
	calls  int
	cutoff time.Time
	n      int64
	err    error
}

func (m *mockAuditPruner) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.calls++
	m.cutoff = cutoff
	return m.n, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

var fixedNow = time.Date(2024, 6, 15, 3, 0, 0, 0, time.UTC)

func TestNewCleanupJob_DefaultRetention(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockAuditPruner{}, newTestLogger(&buf), 0)

	if job.RetentionDays != DefaultRetentionDays {
		t.Errorf("RetentionDays = %d, want %d", job.RetentionDays, DefaultRetentionDays)
	}
}

func TestCleanupJob_Run_DeletesWithCutoff(t *testing.T) {
	var buf bytes.Buffer
	audits := &mockAuditPruner{n: 7}

	job := NewCleanupJob(audits, newTestLogger(&buf), 30)
	job.now = func() time.Time { return fixedNow }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if audits.calls != 1 {
		t.Errorf("DeleteOlderThan calls = %d, want 1", audits.calls)
	}
	wantCutoff := fixedNow.AddDate(0, 0, -30)
	if !audits.cutoff.Equal(wantCutoff) {
		t.Errorf("cutoff = %v, want %v", audits.cutoff, wantCutoff)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log: %v\nraw: %s", err, buf.String())
	}
	if v, ok := entry["deleted_audit_logs"].(float64); !ok || v != 7 {
		t.Errorf("deleted_audit_logs = %v, want 7", entry["deleted_audit_logs"])
	}
	if v, ok := entry["retention_days"].(float64); !ok || v != 30 {
		t.Errorf("retention_days = %v, want 30", entry["retention_days"])
	}
}

func TestCleanupJob_Run_NothingToDelete(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockAuditPruner{}, newTestLogger(&buf), 365)

	if err := job.Run(context.Background()); err != nil {
		t.Errorf("Run() should be idempotent, got error = %v", err)
	}
	if err := job.Run(context.Background()); err != nil {
		t.Errorf("second Run() error = %v", err)
	}
}

func TestCleanupJob_Run_ReturnsStoreError(t *testing.T) {
	var buf bytes.Buffer
	auditErr := errors.New("connection refused")
	job := NewCleanupJob(&mockAuditPruner{err: auditErr}, newTestLogger(&buf), 365)

	err := job.Run(context.Background())
	if !errors.Is(err, auditErr) {
		t.Fatalf("error should wrap the audit failure: %v", err)
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("expected an error log, got %s", buf.String())
	}
}
