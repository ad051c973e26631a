package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/common/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// VerificationRequestRepository handles database operations for manual reviews
type VerificationRequestRepository struct {
	db *db.DB
}

// NewVerificationRequestRepository creates a new verification request repository
func NewVerificationRequestRepository(database *db.DB) *VerificationRequestRepository {
	return &VerificationRequestRepository{db: database}
}

// UpsertPending creates a pending review for the member, or refreshes the
// claim of the one already open. The partial unique index on (member_id)
// makes the ON CONFLICT arm the idempotency mechanism: two concurrent
// escalations still leave exactly one pending row.
func (r *VerificationRequestRepository) UpsertPending(ctx context.Context, memberID string, claim models.VerificationClaim, contact models.ContactInfo) (*models.VerificationRequest, bool, error) {
	claimJSON, err := json.Marshal(claim)
	if err != nil {
		return nil, false, fmt.Errorf("marshal claim: %w", err)
	}
	contactJSON, err := json.Marshal(contact)
	if err != nil {
		return nil, false, fmt.Errorf("marshal contact: %w", err)
	}

	query := `
		INSERT INTO verification_request (request_id, member_id, claim, contact, status)
		VALUES ($1, $2, $3, $4, 'pending_review')
		ON CONFLICT (member_id) WHERE status = 'pending_review'
		DO UPDATE SET claim = EXCLUDED.claim, contact = EXCLUDED.contact, updated_at = now()
		RETURNING request_id, member_id, claim, contact, status, notes, created_at, updated_at, (xmax = 0)
	`

	req := &models.VerificationRequest{}
	var claimRaw, contactRaw []byte
	var inserted bool
	err = r.db.QueryRow(ctx, query, uuid.New(), memberID, claimJSON, contactJSON).Scan(
		&req.RequestID,
		&req.MemberID,
		&claimRaw,
		&contactRaw,
		&req.Status,
		&req.Notes,
		&req.CreatedAt,
		&req.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert review request: %w", err)
	}

	if err := unmarshalRequestPayload(req, claimRaw, contactRaw); err != nil {
		return nil, false, err
	}

	return req, inserted, nil
}

// GetByID retrieves a review request
func (r *VerificationRequestRepository) GetByID(ctx context.Context, requestID uuid.UUID) (*models.VerificationRequest, error) {
	query := `
		SELECT request_id, member_id, claim, contact, status, notes, created_at, updated_at
		FROM verification_request
		WHERE request_id = $1
	`

	req := &models.VerificationRequest{}
	var claimRaw, contactRaw []byte
	err := r.db.QueryRow(ctx, query, requestID).Scan(
		&req.RequestID,
		&req.MemberID,
		&claimRaw,
		&contactRaw,
		&req.Status,
		&req.Notes,
		&req.CreatedAt,
		&req.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: review request %s", ErrNotFound, requestID)
		}
		return nil, fmt.Errorf("failed to get review request: %w", err)
	}

	if err := unmarshalRequestPayload(req, claimRaw, contactRaw); err != nil {
		return nil, err
	}

	return req, nil
}

// ListPending lists open review requests, oldest first so admins drain the queue in order
func (r *VerificationRequestRepository) ListPending(ctx context.Context, limit, offset int) ([]*models.VerificationRequest, error) {
	query := `
		SELECT request_id, member_id, claim, contact, status, notes, created_at, updated_at
		FROM verification_request
		WHERE status = 'pending_review'
		ORDER BY created_at ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list review requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.VerificationRequest
	for rows.Next() {
		req := &models.VerificationRequest{}
		var claimRaw, contactRaw []byte
		err := rows.Scan(
			&req.RequestID,
			&req.MemberID,
			&claimRaw,
			&contactRaw,
			&req.Status,
			&req.Notes,
			&req.CreatedAt,
			&req.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review request: %w", err)
		}
		if err := unmarshalRequestPayload(req, claimRaw, contactRaw); err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating review requests: %w", err)
	}

	return requests, nil
}

// ResolvePending moves an open request to approved or denied. The status
// guard ensures a request is decided at most once.
func (r *VerificationRequestRepository) ResolvePending(ctx context.Context, requestID uuid.UUID, status models.ReviewStatus, notes string) (bool, error) {
	query := `
		UPDATE verification_request
		SET status = $2, notes = $3, updated_at = now()
		WHERE request_id = $1 AND status = 'pending_review'
	`

	tag, err := r.db.Exec(ctx, query, requestID, status, notes)
	if err != nil {
		return false, fmt.Errorf("failed to resolve review request: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// UpdatePendingClaim replaces the stored claim of an open request
func (r *VerificationRequestRepository) UpdatePendingClaim(ctx context.Context, requestID uuid.UUID, claim models.VerificationClaim) (bool, error) {
	claimJSON, err := json.Marshal(claim)
	if err != nil {
		return false, fmt.Errorf("marshal claim: %w", err)
	}

	query := `
		UPDATE verification_request
		SET claim = $2, updated_at = now()
		WHERE request_id = $1 AND status = 'pending_review'
	`

	tag, err := r.db.Exec(ctx, query, requestID, claimJSON)
	if err != nil {
		return false, fmt.Errorf("failed to update review claim: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// CountPending counts open review requests
func (r *VerificationRequestRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM verification_request WHERE status = 'pending_review'`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count review requests: %w", err)
	}
	return count, nil
}

func unmarshalRequestPayload(req *models.VerificationRequest, claimRaw, contactRaw []byte) error {
	if err := json.Unmarshal(claimRaw, &req.Claim); err != nil {
		return fmt.Errorf("unmarshal claim: %w", err)
	}
	if err := json.Unmarshal(contactRaw, &req.Contact); err != nil {
		return fmt.Errorf("unmarshal contact: %w", err)
	}
	return nil
}
