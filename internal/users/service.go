package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"resume-portal/internal/shared/telemetry"
)

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// Service checks passwords against the configured accounts and records
// every signed-in user.
type Service struct {
	Repo     Repo
	accounts map[string]Account
	// compared when the username is unknown so timing does not reveal it
	dummyHash []byte
}

func NewService(repo Repo, accounts []Account) *Service {
	byName := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		byName[strings.ToLower(a.Username)] = a
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("unused"), bcrypt.MinCost)
	return &Service{Repo: repo, accounts: byName, dummyHash: dummy}
}

// Authenticate verifies a username/password pair and records the login.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	if s == nil {
		return User{}, errors.New("users service not configured")
	}
	name := strings.ToLower(strings.TrimSpace(username))
	account, ok := s.accounts[name]
	if !ok || password == "" {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	user := User{
		ID:       ProviderLocal + ":" + account.Username,
		FullName: account.Username,
		Provider: ProviderLocal,
		Roles:    append([]string(nil), account.Roles...),
	}
	s.record(ctx, user)
	return user, nil
}

// UpsertFromAuth persists an identity that signed in through OAuth.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ID) == "" || strings.TrimSpace(user.Email) == "" {
		return errors.New("user id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	if s == nil || s.Repo == nil {
		return nil, errors.New("users service not configured")
	}
	return s.Repo.List(ctx)
}

// record stores the login; a failing directory never blocks sign-in.
func (s *Service) record(ctx context.Context, user User) {
	if s.Repo == nil {
		return
	}
	if err := s.Repo.Upsert(ctx, user); err != nil {
		telemetry.Warn("user upsert failed", map[string]any{"user_id": user.ID, "error": err.Error()})
	}
}
