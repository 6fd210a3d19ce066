package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"

	"github.com/lib/pq"
)

var _ services.SessionStore = (*PostgresSessionRepository)(nil)

// uniqueViolation is the PostgreSQL error code for duplicate keys
const uniqueViolation = "23505"

// ErrDuplicateSession is returned when a session id is already stored
var ErrDuplicateSession = errors.New("wallet session already exists")

const createSessionsTable = `CREATE TABLE IF NOT EXISTS wallet_sessions (
	id          VARCHAR(36) PRIMARY KEY,
	gie_code    VARCHAR(32) NOT NULL,
	token       TEXT NOT NULL,
	wallet      JSONB NOT NULL,
	expires_at  TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_wallet_sessions_expires_at ON wallet_sessions (expires_at);
CREATE INDEX IF NOT EXISTS idx_wallet_sessions_gie_code ON wallet_sessions (gie_code);`

// PostgresSessionRepository stores wallet sessions with database/sql and lib/pq
type PostgresSessionRepository struct {
	db *sql.DB
}

// NewPostgresSessionRepository creates a PostgreSQL-backed session store
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{db: db}
}

// EnsureSchema creates the sessions table when missing
func (r *PostgresSessionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createSessionsTable); err != nil {
		return fmt.Errorf("error creating wallet_sessions table: %w", err)
	}
	return nil
}

func (r *PostgresSessionRepository) Create(ctx context.Context, s *domain.WalletSession) error {
	wallet, err := json.Marshal(s.Wallet)
	if err != nil {
		return fmt.Errorf("error encoding wallet: %w", err)
	}
	query := `INSERT INTO wallet_sessions (id, gie_code, token, wallet, expires_at, created_at)
               VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = r.db.ExecContext(ctx, query, s.ID, s.GieCode, s.Token, wallet, s.ExpiresAt, s.CreatedAt)
	return insertError(err)
}

func (r *PostgresSessionRepository) Get(ctx context.Context, id string) (*domain.WalletSession, error) {
	query := `SELECT id, gie_code, token, wallet, expires_at, created_at
               FROM wallet_sessions WHERE id = $1`
	s := &domain.WalletSession{}
	var wallet []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.GieCode, &s.Token, &wallet, &s.ExpiresAt, &s.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("error getting wallet session: %w", err)
	}
	if err := json.Unmarshal(wallet, &s.Wallet); err != nil {
		return nil, fmt.Errorf("error decoding wallet: %w", err)
	}
	return s, nil
}

func (r *PostgresSessionRepository) UpdateWallet(ctx context.Context, id string, w domain.WalletSnapshot) error {
	wallet, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("error encoding wallet: %w", err)
	}
	query := `UPDATE wallet_sessions SET wallet = $1, updated_at = NOW() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, wallet, id)
	if err != nil {
		return fmt.Errorf("error updating wallet session: %w", err)
	}
	return requireAffected(res)
}

func (r *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wallet_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting wallet session: %w", err)
	}
	return requireAffected(res)
}

func (r *PostgresSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM wallet_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("error deleting expired wallet sessions: %w", err)
	}
	return res.RowsAffected()
}

// insertError maps a duplicate key to ErrDuplicateSession
func insertError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return ErrDuplicateSession
	}
	return fmt.Errorf("error creating wallet session: %w", err)
}

// requireAffected reports ErrSessionNotFound when no row matched
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error reading affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
