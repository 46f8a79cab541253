package object

import (
	"io"
	"strings"
	"testing"
)

func TestHashOwnerStableHex(t *testing.T) {
	got := HashOwner("recruiter:alice")
	if got != HashOwner("recruiter:alice") {
		t.Fatalf("expected stable hash")
	}
	if len(got) != 64 || strings.Trim(got, "0123456789abcdef") != "" {
		t.Fatalf("expected 64 hex characters, got %q", got)
	}
}

func TestSanitizeFileName(t *testing.T) {
	if _, err := SanitizeFileName("../etc/passwd"); err == nil {
		t.Fatalf("expected traversal to be rejected")
	}
	if _, err := SanitizeFileName("   "); err == nil {
		t.Fatalf("expected blank name to be rejected")
	}
	got, err := SanitizeFileName(" cv/2024\\final.pdf ")
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	if got != "cv_2024_final.pdf" {
		t.Fatalf("unexpected name %q", got)
	}
}

func TestNewKeyNamespacesOwner(t *testing.T) {
	key, err := NewKey("alice", "resume.pdf")
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	if !strings.HasPrefix(key, HashOwner("alice")+"/") || !strings.HasSuffix(key, "_resume.pdf") {
		t.Fatalf("unexpected key %q", key)
	}
}

func TestSniffReplaysHead(t *testing.T) {
	mimeType, r, err := Sniff(strings.NewReader("%PDF-1.4 body"))
	if err != nil {
		t.Fatalf("sniff: %v", err)
	}
	if mimeType != "application/pdf" {
		t.Fatalf("expected application/pdf, got %s", mimeType)
	}
	body, _ := io.ReadAll(r)
	if string(body) != "%PDF-1.4 body" {
		t.Fatalf("expected body replayed, got %q", body)
	}
}
