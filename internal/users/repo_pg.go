package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO portal_users (id, email, full_name, provider, roles, created_at, last_login_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  provider = EXCLUDED.provider,
  roles = EXCLUDED.roles,
  last_login_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		nullableString(user.Email),
		nullableString(user.FullName),
		user.Provider,
		strings.Join(user.Roles, ","),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, full_name, provider, roles, created_at, last_login_at
FROM portal_users
WHERE id = $1`
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return user, err
}

func (r *PGRepo) List(ctx context.Context) ([]User, error) {
	const query = `
SELECT id, email, full_name, provider, roles, created_at, last_login_at
FROM portal_users
ORDER BY last_login_at DESC, id`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var (
		user     User
		email    sql.NullString
		fullName sql.NullString
		roles    string
	)
	if err := row.Scan(&user.ID, &email, &fullName, &user.Provider, &roles, &user.CreatedAt, &user.LastLoginAt); err != nil {
		return User{}, err
	}
	user.Email = email.String
	user.FullName = fullName.String
	user.Roles = splitRoles(roles, ",")
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
