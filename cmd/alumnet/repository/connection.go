package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/common/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ConnectionRepository handles database operations for connection edges
type ConnectionRepository struct {
	db *db.DB
}

// NewConnectionRepository creates a new connection repository
func NewConnectionRepository(database *db.DB) *ConnectionRepository {
	return &ConnectionRepository{db: database}
}

const edgeColumns = `edge_id, requester_id, recipient_id, status, request_message, created_at, updated_at, responded_at`

// Insert persists a new pending edge. The partial unique index on the pair
// key makes this the serialization point: of two racing inserts for the same
// pair, exactly one succeeds and the other returns ErrDuplicatePair.
func (r *ConnectionRepository) Insert(ctx context.Context, edge *models.ConnectionEdge) error {
	lo, hi := models.PairKey(edge.RequesterID, edge.RecipientID)

	query := `
		INSERT INTO connection_edge (edge_id, requester_id, recipient_id, pair_lo, pair_hi, status, request_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		edge.EdgeID,
		edge.RequesterID,
		edge.RecipientID,
		lo,
		hi,
		edge.Status,
		edge.RequestMessage,
		edge.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s/%s", ErrDuplicatePair, lo, hi)
		}
		return fmt.Errorf("failed to insert edge: %w", err)
	}

	return nil
}

// GetByID retrieves an edge by its ID
func (r *ConnectionRepository) GetByID(ctx context.Context, edgeID uuid.UUID) (*models.ConnectionEdge, error) {
	query := `SELECT ` + edgeColumns + ` FROM connection_edge WHERE edge_id = $1`

	edge := &models.ConnectionEdge{}
	err := r.db.QueryRow(ctx, query, edgeID).Scan(
		&edge.EdgeID,
		&edge.RequesterID,
		&edge.RecipientID,
		&edge.Status,
		&edge.RequestMessage,
		&edge.CreatedAt,
		&edge.UpdatedAt,
		&edge.RespondedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: edge %s", ErrNotFound, edgeID)
		}
		return nil, fmt.Errorf("failed to get edge: %w", err)
	}

	return edge, nil
}

// GetPairEdge retrieves the live (non-rejected) edge between two members,
// regardless of direction. Returns ErrNotFound if the slot is empty.
func (r *ConnectionRepository) GetPairEdge(ctx context.Context, a, b string) (*models.ConnectionEdge, error) {
	lo, hi := models.PairKey(a, b)

	query := `
		SELECT ` + edgeColumns + `
		FROM connection_edge
		WHERE pair_lo = $1 AND pair_hi = $2 AND status <> 'rejected'
	`

	edge := &models.ConnectionEdge{}
	err := r.db.QueryRow(ctx, query, lo, hi).Scan(
		&edge.EdgeID,
		&edge.RequesterID,
		&edge.RecipientID,
		&edge.Status,
		&edge.RequestMessage,
		&edge.CreatedAt,
		&edge.UpdatedAt,
		&edge.RespondedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: pair %s/%s", ErrNotFound, lo, hi)
		}
		return nil, fmt.Errorf("failed to get pair edge: %w", err)
	}

	return edge, nil
}

// UpdateStatusIfPending transitions a pending edge to accepted or rejected.
// The status guard in the WHERE clause closes the race between two concurrent
// responders: only one UPDATE observes the pending row.
func (r *ConnectionRepository) UpdateStatusIfPending(ctx context.Context, edgeID uuid.UUID, status models.ConnectionStatus) (bool, error) {
	query := `
		UPDATE connection_edge
		SET status = $2, updated_at = now(), responded_at = now()
		WHERE edge_id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, edgeID, status)
	if err != nil {
		return false, fmt.Errorf("failed to update edge status: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeletePendingFrom removes the caller's own pending request toward the
// counterparty. Returns false when no such request exists.
func (r *ConnectionRepository) DeletePendingFrom(ctx context.Context, requesterID, recipientID string) (bool, error) {
	query := `
		DELETE FROM connection_edge
		WHERE requester_id = $1 AND recipient_id = $2 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, requesterID, recipientID)
	if err != nil {
		return false, fmt.Errorf("failed to delete pending edge: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// DeleteAccepted removes the accepted edge of a pair, from either side
func (r *ConnectionRepository) DeleteAccepted(ctx context.Context, a, b string) (bool, error) {
	lo, hi := models.PairKey(a, b)

	query := `
		DELETE FROM connection_edge
		WHERE pair_lo = $1 AND pair_hi = $2 AND status = 'accepted'
	`

	tag, err := r.db.Exec(ctx, query, lo, hi)
	if err != nil {
		return false, fmt.Errorf("failed to delete accepted edge: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ListPending lists a member's pending requests, newest first
func (r *ConnectionRepository) ListPending(ctx context.Context, memberID string, direction models.Direction, limit, offset int) ([]*models.ConnectionEdge, error) {
	column := "recipient_id"
	if direction == models.DirectionOutgoing {
		column = "requester_id"
	}

	query := `
		SELECT ` + edgeColumns + `
		FROM connection_edge
		WHERE ` + column + ` = $1 AND status = 'pending'
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, memberID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending edges: %w", err)
	}
	defer rows.Close()

	var edges []*models.ConnectionEdge
	for rows.Next() {
		edge := &models.ConnectionEdge{}
		err := rows.Scan(
			&edge.EdgeID,
			&edge.RequesterID,
			&edge.RecipientID,
			&edge.Status,
			&edge.RequestMessage,
			&edge.CreatedAt,
			&edge.UpdatedAt,
			&edge.RespondedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan edge: %w", err)
		}
		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating edges: %w", err)
	}

	return edges, nil
}

// ListConnectedMembers returns the counterpart IDs of all accepted edges
func (r *ConnectionRepository) ListConnectedMembers(ctx context.Context, memberID string) ([]string, error) {
	query := `
		SELECT CASE WHEN requester_id = $1 THEN recipient_id ELSE requester_id END
		FROM connection_edge
		WHERE (requester_id = $1 OR recipient_id = $1) AND status = 'accepted'
		ORDER BY responded_at DESC
	`

	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list connections: %w", err)
	}
	defer rows.Close()

	var memberIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		memberIDs = append(memberIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return memberIDs, nil
}

// AreConnected reports whether an accepted edge exists for the pair.
// Single indexed lookup on the canonical pair key.
func (r *ConnectionRepository) AreConnected(ctx context.Context, a, b string) (bool, error) {
	lo, hi := models.PairKey(a, b)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM connection_edge
			WHERE pair_lo = $1 AND pair_hi = $2 AND status = 'accepted'
		)
	`

	var connected bool
	if err := r.db.QueryRow(ctx, query, lo, hi).Scan(&connected); err != nil {
		return false, fmt.Errorf("failed to check connection: %w", err)
	}

	return connected, nil
}
