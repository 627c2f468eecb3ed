// Package storage implements the SQLite persistence layer for users,
// sessions, categories, transactions and the audit log.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/SadLabib/Spendit/internal/core"
	"github.com/SadLabib/Spendit/internal/export"

	_ "modernc.org/sqlite"
)

// User is the identity principal consumed by exports and sessions.
// Identity enrollment (OAuth bindings, 2FA) is managed elsewhere; this
// layer only reads what the personal-data export needs.
type User struct {
	ID                   int64
	UserName             string
	Email                string
	EmailConfirmed       bool
	PhoneNumber          sql.NullString
	PhoneNumberConfirmed bool
	TwoFactorEnabled     bool
	PasswordHash         string
	AuthenticatorKey     sql.NullString
	CreatedAt            time.Time
}

// SessionInfo holds session validation data.
type SessionInfo struct {
	User         *User
	LastActivity time.Time
	ExpiresAt    time.Time
}

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ---- Users ----

func (r *Repository) CreateUser(ctx context.Context, userName, email, passwordHash string) (*User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_name, email, password_hash) VALUES (?, ?, ?)`,
		userName, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user id: %w", err)
	}
	return r.GetUserByID(ctx, id)
}

const userColumns = `id, user_name, email, email_confirmed, phone_number,
	phone_number_confirmed, two_factor_enabled, password_hash,
	authenticator_key, created_at`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.EmailConfirmed,
		&u.PhoneNumber, &u.PhoneNumberConfirmed, &u.TwoFactorEnabled,
		&u.PasswordHash, &u.AuthenticatorKey, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *Repository) GetUserByUserName(ctx context.Context, userName string) (*User, error) {
	return scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_name = ?`, userName))
}

// PersonalData returns the user's personal-data attributes as ordered
// name/value pairs. The attribute set is a static allowlist agreed with
// the identity subsystem rather than anything derived at runtime.
func (r *Repository) PersonalData(ctx context.Context, userID int64) ([]export.Attribute, error) {
	u, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []export.Attribute{
		{Name: "Id", Value: strconv.FormatInt(u.ID, 10)},
		{Name: "UserName", Value: u.UserName},
		{Name: "Email", Value: u.Email},
		{Name: "EmailConfirmed", Value: strconv.FormatBool(u.EmailConfirmed)},
		{Name: "PhoneNumber", Value: nullableValue(u.PhoneNumber)},
		{Name: "PhoneNumberConfirmed", Value: strconv.FormatBool(u.PhoneNumberConfirmed)},
		{Name: "TwoFactorEnabled", Value: strconv.FormatBool(u.TwoFactorEnabled)},
	}, nil
}

// nullableValue renders a missing attribute the way exports expect.
func nullableValue(s sql.NullString) string {
	if !s.Valid || s.String == "" {
		return "null"
	}
	return s.String
}

func (r *Repository) ExternalLogins(ctx context.Context, userID int64) ([]export.ExternalLogin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT provider, provider_key FROM external_logins WHERE user_id = ? ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list external logins: %w", err)
	}
	defer rows.Close()

	var logins []export.ExternalLogin
	for rows.Next() {
		var l export.ExternalLogin
		if err := rows.Scan(&l.Provider, &l.ProviderKey); err != nil {
			return nil, fmt.Errorf("scan external login: %w", err)
		}
		logins = append(logins, l)
	}
	return logins, rows.Err()
}

// AuthenticatorKey returns the user's authenticator key, or "" when no
// authenticator is enrolled.
func (r *Repository) AuthenticatorKey(ctx context.Context, userID int64) (string, error) {
	u, err := r.GetUserByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if !u.AuthenticatorKey.Valid {
		return "", nil
	}
	return u.AuthenticatorKey.String, nil
}

// AddExternalLogin binds an external identity provider to a user.
func (r *Repository) AddExternalLogin(ctx context.Context, userID int64, provider, providerKey string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO external_logins (user_id, provider, provider_key) VALUES (?, ?, ?)`,
		userID, provider, providerKey)
	if err != nil {
		return fmt.Errorf("add external login: %w", err)
	}
	return nil
}

// ---- Sessions ----

func (r *Repository) CreateSession(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token, user_id, expires_at, last_activity) VALUES (?, ?, ?, ?)`,
		token, userID, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// ValidateSession resolves a session token to its user.
// Expired or unknown tokens yield core.ErrUserNotFound.
func (r *Repository) ValidateSession(ctx context.Context, token string) (*SessionInfo, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT u.id, u.user_name, u.email, u.email_confirmed, u.phone_number,
		       u.phone_number_confirmed, u.two_factor_enabled, u.password_hash,
		       u.authenticator_key, u.created_at, s.last_activity, s.expires_at
		FROM sessions s
		JOIN users u ON s.user_id = u.id
		WHERE s.token = ? AND s.expires_at > ?`, token, time.Now())

	var u User
	var info SessionInfo
	err := row.Scan(&u.ID, &u.UserName, &u.Email, &u.EmailConfirmed,
		&u.PhoneNumber, &u.PhoneNumberConfirmed, &u.TwoFactorEnabled,
		&u.PasswordHash, &u.AuthenticatorKey, &u.CreatedAt,
		&info.LastActivity, &info.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("validate session: %w", err)
	}
	info.User = &u
	return &info, nil
}

func (r *Repository) RenewSession(ctx context.Context, token string, newExpiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?`,
		time.Now(), newExpiresAt, token)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

func (r *Repository) DeleteSession(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CleanExpiredSessions removes expired sessions and returns how many
// were deleted.
func (r *Repository) CleanExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("clean expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clean expired sessions count: %w", err)
	}
	return n, nil
}

// ---- Audit log ----

// InsertAuditLog records a data-access event. Written by the audit
// worker when events arrive over AMQP.
func (r *Repository) InsertAuditLog(ctx context.Context, userID int64, action string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, created_at) VALUES (?, ?, ?)`,
		userID, action, at)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
