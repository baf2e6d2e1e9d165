package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"kalyana/internal/models"
)

type OTPContextRepository interface {
	Create(ctx context.Context, c *models.OTPContext) error
	GetByToken(ctx context.Context, token string) (*models.OTPContext, error)
	// IncrementAttempts bumps the failed-attempt counter and returns the new value.
	IncrementAttempts(ctx context.Context, token string) (int, error)
	// ReplaceCode swaps in a fresh code hash and expiry and resets attempts; the payload is untouched.
	ReplaceCode(ctx context.Context, token, codeHash string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
}

type otpContextRepository struct {
	DB *sql.DB
}

func NewOTPContextRepository(db *sql.DB) OTPContextRepository {
	return &otpContextRepository{DB: db}
}

func (r *otpContextRepository) Create(ctx context.Context, c *models.OTPContext) error {
	payload, err := json.Marshal(c.Payload)
	if err != nil {
		return fmt.Errorf("encode otp payload: %w", err)
	}
	return r.DB.QueryRowContext(ctx, `
		INSERT INTO otp_contexts (token, purpose, email, code_hash, expires_at, attempts, payload)
		VALUES ($1,$2,$3,$4,$5,0,$6)
		RETURNING created_at
	`, c.Token, string(c.Purpose), c.Email, c.CodeHash, c.ExpiresAt, payload).Scan(&c.CreatedAt)
}

func (r *otpContextRepository) GetByToken(ctx context.Context, token string) (*models.OTPContext, error) {
	var (
		c       models.OTPContext
		purpose string
		payload []byte
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT token, purpose, email, code_hash, expires_at, attempts, payload, created_at
		FROM otp_contexts
		WHERE token=$1
	`, token).Scan(&c.Token, &purpose, &c.Email, &c.CodeHash, &c.ExpiresAt, &c.Attempts, &payload, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	c.Purpose = models.OTPPurpose(purpose)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &c.Payload); err != nil {
			return nil, fmt.Errorf("decode otp payload: %w", err)
		}
	}
	return &c, nil
}

func (r *otpContextRepository) IncrementAttempts(ctx context.Context, token string) (int, error) {
	var attempts int
	err := r.DB.QueryRowContext(ctx,
		`UPDATE otp_contexts SET attempts = attempts + 1 WHERE token=$1 RETURNING attempts`, token,
	).Scan(&attempts)
	return attempts, err
}

func (r *otpContextRepository) ReplaceCode(ctx context.Context, token, codeHash string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE otp_contexts SET code_hash=$1, expires_at=$2, attempts=0 WHERE token=$3`,
		codeHash, expiresAt, token,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *otpContextRepository) Delete(ctx context.Context, token string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM otp_contexts WHERE token=$1`, token)
	return err
}
