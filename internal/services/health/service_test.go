package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStatusWithoutChecksIsReady(t *testing.T) {
	results, ready := NewService().Status(context.Background())
	if !ready || len(results) != 0 {
		t.Fatalf("expected ready with no results, got %v %v", results, ready)
	}
}

func TestStatusReportsEachCheck(t *testing.T) {
	svc := NewService()
	svc.Register("mongo", func(context.Context) error { return nil })
	svc.Register("redis", func(context.Context) error { return errors.New("connection refused") })

	results, ready := svc.Status(context.Background())
	if ready {
		t.Fatalf("expected not ready")
	}
	if results["mongo"] != "ok" || results["redis"] != "connection refused" {
		t.Fatalf("unexpected results %v", results)
	}
	if names := svc.Names(); len(names) != 2 || names[0] != "mongo" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestStatusBoundsSlowChecks(t *testing.T) {
	svc := NewService()
	svc.timeout = 20 * time.Millisecond
	svc.Register("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	started := time.Now()
	results, ready := svc.Status(context.Background())
	if ready || results["slow"] == "ok" {
		t.Fatalf("expected slow check to fail, got %v", results)
	}
	if time.Since(started) > time.Second {
		t.Fatalf("status should not wait past the check timeout")
	}
}
