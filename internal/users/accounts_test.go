package users

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func TestParseAccounts(t *testing.T) {
	hash := testHash(t, "secret")
	raw := " Alice:" + hash + ":recruiter , bob:" + hash + ":ADMIN|recruiter,"

	accounts, err := ParseAccounts(raw)
	if err != nil {
		t.Fatalf("ParseAccounts: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Username != "alice" || accounts[0].Roles[0] != "RECRUITER" {
		t.Fatalf("unexpected first account %+v", accounts[0])
	}
	if len(accounts[1].Roles) != 2 || accounts[1].Roles[0] != "ADMIN" {
		t.Fatalf("unexpected roles %v", accounts[1].Roles)
	}
}

func TestParseAccountsRejectsBadEntries(t *testing.T) {
	hash := testHash(t, "secret")
	cases := map[string]string{
		"missing roles": "alice:" + hash,
		"empty roles":   "alice:" + hash + ":",
		"plain text":    "alice:secret:RECRUITER",
		"duplicate":     "alice:" + hash + ":RECRUITER,alice:" + hash + ":ADMIN",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseAccounts(raw); !errors.Is(err, ErrInvalidAccounts) {
				t.Fatalf("expected ErrInvalidAccounts, got %v", err)
			}
		})
	}
}

func TestParseAccountsEmpty(t *testing.T) {
	accounts, err := ParseAccounts("  ")
	if err != nil || len(accounts) != 0 {
		t.Fatalf("expected no accounts, got %v %v", accounts, err)
	}
}

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte("hunter2")); err != nil {
		t.Fatalf("hash does not verify: %v", err)
	}
	if _, err := HashPassword(""); err == nil {
		t.Fatalf("expected error for empty password")
	}
}
