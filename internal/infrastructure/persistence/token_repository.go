package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/crazygit/ewerobot/pkg/wechat"
)

const credentialTable = "ewerobot_credential"

// TokenRepository persists platform credentials in MySQL so several worker
// processes share one access_token instead of each granting its own.
// It implements wechat.TokenStore.
type TokenRepository struct {
	db *sql.DB
}

// NewTokenRepository creates a repository over an open connection
func NewTokenRepository(db *sql.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// EnsureSchema creates the credential table when it does not exist
func (r *TokenRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		kind VARCHAR(32) NOT NULL PRIMARY KEY,
		value TEXT NOT NULL,
		expires_at DATETIME NOT NULL
	)`, credentialTable)
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create credential table: %w", err)
	}
	return nil
}

// Get returns the stored credential for a kind. A missing row comes back
// as a zero Credential, which the client treats as expired.
func (r *TokenRepository) Get(ctx context.Context, kind string) (wechat.Credential, error) {
	query := fmt.Sprintf("SELECT value, expires_at FROM %s WHERE kind = ?", credentialTable)

	var cred wechat.Credential
	err := r.db.QueryRowContext(ctx, query, kind).Scan(&cred.Value, &cred.ExpiresAt)
	if err == sql.ErrNoRows {
		return wechat.Credential{}, nil
	}
	if err != nil {
		return wechat.Credential{}, fmt.Errorf("failed to load credential: %w", err)
	}
	return cred, nil
}

// Set upserts the credential for a kind. The expiry is handed to the
// driver as a UTC time.Time so it round-trips through DATETIME unskewed
// regardless of the host zone (the DSN parses with loc=UTC).
func (r *TokenRepository) Set(ctx context.Context, kind string, cred wechat.Credential) error {
	query := fmt.Sprintf(`INSERT INTO %s (kind, value, expires_at) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE value = VALUES(value), expires_at = VALUES(expires_at)`,
		credentialTable)

	if _, err := r.db.ExecContext(ctx, query, kind, cred.Value, cred.ExpiresAt.UTC()); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}
