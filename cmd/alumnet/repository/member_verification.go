package repository

import (
	"context"
	"fmt"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/common/db"
)

// MemberVerificationRepository owns the verified-alumni flag. It is the only
// writer; three verification paths funnel into MarkVerified.
type MemberVerificationRepository struct {
	db *db.DB
}

// NewMemberVerificationRepository creates a new member verification repository
func NewMemberVerificationRepository(database *db.DB) *MemberVerificationRepository {
	return &MemberVerificationRepository{db: database}
}

// MarkVerified flips the member's verified flag, recording which method won
func (r *MemberVerificationRepository) MarkVerified(ctx context.Context, memberID string, method models.VerificationMethod) error {
	query := `
		INSERT INTO member_verification (member_id, verified, method, verified_at)
		VALUES ($1, true, $2, now())
		ON CONFLICT (member_id)
		DO UPDATE SET verified = true, method = EXCLUDED.method, verified_at = now()
	`

	if _, err := r.db.Exec(ctx, query, memberID, method); err != nil {
		return fmt.Errorf("failed to mark member verified: %w", err)
	}

	return nil
}

// IsVerified reports whether the member carries the verified-alumni flag
func (r *MemberVerificationRepository) IsVerified(ctx context.Context, memberID string) (bool, error) {
	query := `SELECT COALESCE((SELECT verified FROM member_verification WHERE member_id = $1), false)`

	var verified bool
	if err := r.db.QueryRow(ctx, query, memberID).Scan(&verified); err != nil {
		return false, fmt.Errorf("failed to read verified flag: %w", err)
	}

	return verified, nil
}

// CountVerified counts members holding the flag
func (r *MemberVerificationRepository) CountVerified(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM member_verification WHERE verified`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count verified members: %w", err)
	}
	return count, nil
}
