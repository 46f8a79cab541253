package downloads

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one completed download.
type Event struct {
	SessionID string
	ResumeID  string
	Preview   bool
	At        time.Time
}

// Ledger persists completed downloads for reporting. The Gate stays the
// source of truth for limits.
type Ledger interface {
	Record(ctx context.Context, ev Event) error
	CountForResume(ctx context.Context, resumeID string) (int64, error)
}

// MemoryLedger keeps events in process.
type MemoryLedger struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryLedger constructs an empty MemoryLedger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (l *MemoryLedger) Record(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *MemoryLedger) CountForResume(ctx context.Context, resumeID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	var n int64
	for _, ev := range l.events {
		if ev.ResumeID == resumeID {
			n++
		}
	}
	return n, nil
}

// PGLedger stores events in the download_events table.
type PGLedger struct {
	DB *sql.DB
}

func (l *PGLedger) Record(ctx context.Context, ev Event) error {
	if l == nil || l.DB == nil {
		return errors.New("ledger database not configured")
	}
	_, err := l.DB.ExecContext(ctx, `
INSERT INTO download_events (id, session_id, resume_id, preview, downloaded_at)
VALUES ($1, $2, $3, $4, $5)`, uuid.NewString(), ev.SessionID, ev.ResumeID, ev.Preview, ev.At)
	if err != nil {
		return fmt.Errorf("record download of %s: %w", ev.ResumeID, err)
	}
	return nil
}

func (l *PGLedger) CountForResume(ctx context.Context, resumeID string) (int64, error) {
	if l == nil || l.DB == nil {
		return 0, errors.New("ledger database not configured")
	}
	var n int64
	err := l.DB.QueryRowContext(ctx, `
SELECT COUNT(*) FROM download_events WHERE resume_id = $1`, resumeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count downloads of %s: %w", resumeID, err)
	}
	return n, nil
}
