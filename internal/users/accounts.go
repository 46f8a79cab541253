package users

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"resume-portal/internal/shared/auth"
)

// ParseAccounts reads AUTH_ACCOUNTS entries of the form
// "username:bcryptHash:ROLE1|ROLE2", separated by commas.
func ParseAccounts(raw string) ([]Account, error) {
	var out []Account
	seen := make(map[string]bool)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAccounts, redactEntry(entry))
		}
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		hash := strings.TrimSpace(parts[1])
		roles := normalizeRoles(splitRoles(parts[2], "|"))
		if name == "" || hash == "" || len(roles) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAccounts, name)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("%w: %q has no bcrypt hash", ErrInvalidAccounts, name)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate user %q", ErrInvalidAccounts, name)
		}
		seen[name] = true
		out = append(out, Account{Username: name, PasswordHash: hash, Roles: roles})
	}
	return out, nil
}

// DevAccounts returns recruiter/recruiter and admin/admin for local runs.
func DevAccounts() ([]Account, error) {
	recruiter, err := HashPassword("recruiter")
	if err != nil {
		return nil, err
	}
	admin, err := HashPassword("admin")
	if err != nil {
		return nil, err
	}
	return []Account{
		{Username: "recruiter", PasswordHash: recruiter, Roles: []string{auth.RoleRecruiter}},
		{Username: "admin", PasswordHash: admin, Roles: []string{auth.RoleAdmin, auth.RoleRecruiter}},
	}, nil
}

// HashPassword returns a bcrypt hash suitable for AUTH_ACCOUNTS.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func splitRoles(raw, sep string) []string {
	var out []string
	for _, r := range strings.Split(raw, sep) {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, strings.ToUpper(r))
	}
	return out
}

func redactEntry(entry string) string {
	if i := strings.IndexByte(entry, ':'); i >= 0 {
		return entry[:i]
	}
	return entry
}
