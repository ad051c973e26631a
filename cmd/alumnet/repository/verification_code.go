package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/common/db"
	"github.com/jackc/pgx/v5"
)

// VerificationCodeRepository handles database operations for verification codes
type VerificationCodeRepository struct {
	db *db.DB
}

// NewVerificationCodeRepository creates a new verification code repository
func NewVerificationCodeRepository(database *db.DB) *VerificationCodeRepository {
	return &VerificationCodeRepository{db: database}
}

// Insert persists a freshly minted code
func (r *VerificationCodeRepository) Insert(ctx context.Context, code *models.VerificationCode) error {
	query := `
		INSERT INTO verification_code (code, member_id, issued_by, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		code.Code,
		code.MemberID,
		code.IssuedBy,
		code.ExpiresAt,
		code.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateCode, code.Code)
		}
		return fmt.Errorf("failed to insert code: %w", err)
	}

	return nil
}

// Get retrieves a code row regardless of state
func (r *VerificationCodeRepository) Get(ctx context.Context, code string) (*models.VerificationCode, error) {
	query := `
		SELECT code, member_id, issued_by, expires_at, consumed_by, consumed_at, created_at
		FROM verification_code
		WHERE code = $1
	`

	vc := &models.VerificationCode{}
	err := r.db.QueryRow(ctx, query, code).Scan(
		&vc.Code,
		&vc.MemberID,
		&vc.IssuedBy,
		&vc.ExpiresAt,
		&vc.ConsumedBy,
		&vc.ConsumedAt,
		&vc.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: code", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get code: %w", err)
	}

	return vc, nil
}

// Consume marks a code used by the given member. Check and mark are one
// statement, so two racing redemptions cannot both succeed; the guards also
// reject expired codes and codes bound to a different member.
func (r *VerificationCodeRepository) Consume(ctx context.Context, code, memberID string) (bool, error) {
	query := `
		UPDATE verification_code
		SET consumed_by = $2, consumed_at = now()
		WHERE code = $1
		  AND consumed_at IS NULL
		  AND expires_at > now()
		  AND (member_id IS NULL OR member_id = $2)
	`

	tag, err := r.db.Exec(ctx, query, code, memberID)
	if err != nil {
		return false, fmt.Errorf("failed to consume code: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// Stats counts codes by state
func (r *VerificationCodeRepository) Stats(ctx context.Context) (*models.CodeStats, error) {
	query := `
		SELECT
			count(*),
			count(*) FILTER (WHERE consumed_at IS NULL AND expires_at > now()),
			count(*) FILTER (WHERE consumed_at IS NOT NULL),
			count(*) FILTER (WHERE consumed_at IS NULL AND expires_at <= now())
		FROM verification_code
	`

	stats := &models.CodeStats{}
	err := r.db.QueryRow(ctx, query).Scan(
		&stats.Total,
		&stats.Active,
		&stats.Used,
		&stats.Expired,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count codes: %w", err)
	}

	return stats, nil
}
