package mongo

import (
	"context"
	"testing"
)

func TestConnectRejectsEmptyURI(t *testing.T) {
	if _, err := Connect(context.Background(), " ", 0); err == nil {
		t.Fatalf("expected error for empty uri")
	}
}

func TestConnectRejectsMalformedURI(t *testing.T) {
	if _, err := Connect(context.Background(), "not-a-mongo-uri", 0); err == nil {
		t.Fatalf("expected error for malformed uri")
	}
}
