package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/cmd/alumnet/repository"
	"github.com/alumnet/alumnet/common/clients"
	"github.com/alumnet/alumnet/common/logger"
	"github.com/alumnet/alumnet/common/validation"
)

// EdgeStore is the persistence surface the connection service needs. The
// Postgres repository satisfies it; tests plug in an in-memory fake.
type EdgeStore interface {
	Insert(ctx context.Context, edge *models.ConnectionEdge) error
	GetByID(ctx context.Context, edgeID uuid.UUID) (*models.ConnectionEdge, error)
	GetPairEdge(ctx context.Context, a, b string) (*models.ConnectionEdge, error)
	UpdateStatusIfPending(ctx context.Context, edgeID uuid.UUID, status models.ConnectionStatus) (bool, error)
	DeletePendingFrom(ctx context.Context, requesterID, recipientID string) (bool, error)
	DeleteAccepted(ctx context.Context, a, b string) (bool, error)
	ListPending(ctx context.Context, memberID string, direction models.Direction, limit, offset int) ([]*models.ConnectionEdge, error)
	ListConnectedMembers(ctx context.Context, memberID string) ([]string, error)
	AreConnected(ctx context.Context, a, b string) (bool, error)
}

// MemberDirectory resolves member IDs against the platform's member service.
type MemberDirectory interface {
	GetMember(ctx context.Context, memberID string) (*clients.Member, error)
}

// ConnectionService owns the connection-request state machine.
type ConnectionService struct {
	edges     EdgeStore
	members   MemberDirectory
	validator *validation.ClaimValidator
	log       *logger.Logger

	maxMessageLen   int
	defaultPageSize int
	maxPageSize     int
	now             func() time.Time
}

func NewConnectionService(edges EdgeStore, members MemberDirectory, validator *validation.ClaimValidator, log *logger.Logger, maxMessageLen, defaultPageSize, maxPageSize int) *ConnectionService {
	return &ConnectionService{
		edges:           edges,
		members:         members,
		validator:       validator,
		log:             log,
		maxMessageLen:   maxMessageLen,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		now:             time.Now,
	}
}

// SendRequest creates a pending edge from requester to recipient. The
// database's partial unique index on the pair key is the arbiter under
// concurrency, so two simultaneous requests across the same pair leave
// exactly one pending edge no matter which direction each came from.
func (s *ConnectionService) SendRequest(ctx context.Context, requesterID, recipientID string, message *string) (*models.ConnectionEdge, error) {
	recipientID = strings.TrimSpace(recipientID)
	if recipientID == "" {
		return nil, fmt.Errorf("%w: recipient id is required", ErrInvalidInput)
	}
	if requesterID == recipientID {
		return nil, ErrSelfRequest
	}
	if message != nil {
		if err := s.validator.ValidateRequestMessage(*message, s.maxMessageLen); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
		}
	}

	if _, err := s.members.GetMember(ctx, recipientID); err != nil {
		if errors.Is(err, clients.ErrMemberNotFound) {
			return nil, fmt.Errorf("%w: recipient %s", ErrNotFound, recipientID)
		}
		return nil, fmt.Errorf("resolve recipient: %w", err)
	}

	now := s.now()
	edge := &models.ConnectionEdge{
		EdgeID:         uuid.New(),
		RequesterID:    requesterID,
		RecipientID:    recipientID,
		Status:         models.ConnectionPending,
		RequestMessage: message,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.edges.Insert(ctx, edge); err != nil {
		if errors.Is(err, repository.ErrDuplicatePair) {
			return nil, ErrDuplicateEdge
		}
		return nil, err
	}

	s.log.WithEdgeID(edge.EdgeID.String()).Info("connection request sent",
		"requester_id", requesterID, "recipient_id", recipientID)
	return edge, nil
}

// Respond lets the recipient accept or reject a pending request. Only the
// recipient may respond, and only while the edge is still pending; the
// guarded update makes the transition happen at most once under races.
func (s *ConnectionService) Respond(ctx context.Context, edgeID uuid.UUID, actorID string, action models.RespondAction) (*models.ConnectionEdge, error) {
	var target models.ConnectionStatus
	switch action {
	case models.ActionAccept:
		target = models.ConnectionAccepted
	case models.ActionReject:
		target = models.ConnectionRejected
	default:
		return nil, fmt.Errorf("%w: action must be accept or reject", ErrInvalidInput)
	}

	edge, err := s.edges.GetByID(ctx, edgeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if edge.RecipientID != actorID {
		return nil, ErrForbidden
	}
	if edge.Status != models.ConnectionPending {
		return nil, ErrInvalidState
	}

	ok, err := s.edges.UpdateStatusIfPending(ctx, edgeID, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Someone else processed the edge between our read and write.
		return nil, ErrInvalidState
	}

	now := s.now()
	edge.Status = target
	edge.UpdatedAt = now
	edge.RespondedAt = &now

	s.log.WithEdgeID(edgeID.String()).Info("connection request resolved",
		"recipient_id", actorID, "status", target)
	return edge, nil
}

// Cancel withdraws the caller's own pending request toward counterpartyID.
// A pending request in the opposite direction is the counterparty's to
// cancel, not the caller's.
func (s *ConnectionService) Cancel(ctx context.Context, actorID, counterpartyID string) error {
	if actorID == counterpartyID {
		return ErrSelfRequest
	}

	edge, err := s.edges.GetPairEdge(ctx, actorID, counterpartyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if edge.Status != models.ConnectionPending {
		return ErrNotFound
	}
	if edge.RequesterID != actorID {
		return ErrForbidden
	}

	ok, err := s.edges.DeletePendingFrom(ctx, actorID, counterpartyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.log.WithEdgeID(edge.EdgeID.String()).Info("connection request cancelled",
		"requester_id", actorID, "recipient_id", counterpartyID)
	return nil
}

// Remove deletes an accepted connection between the caller and the
// counterparty. Either side may remove; afterwards the pair can start over.
func (s *ConnectionService) Remove(ctx context.Context, actorID, counterpartyID string) error {
	if actorID == counterpartyID {
		return ErrSelfRequest
	}

	ok, err := s.edges.DeleteAccepted(ctx, actorID, counterpartyID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}

	s.log.Info("connection removed", "member_id", actorID, "counterparty_id", counterpartyID)
	return nil
}

// ListPending returns the caller's pending requests on the chosen side,
// newest first.
func (s *ConnectionService) ListPending(ctx context.Context, memberID string, direction models.Direction, limit, offset int) ([]*models.ConnectionEdge, error) {
	switch direction {
	case models.DirectionIncoming, models.DirectionOutgoing:
	default:
		return nil, fmt.Errorf("%w: direction must be incoming or outgoing", ErrInvalidInput)
	}
	limit, offset = s.clampPage(limit, offset)
	return s.edges.ListPending(ctx, memberID, direction, limit, offset)
}

// ListConnections returns the IDs of everyone the member holds an accepted
// edge with.
func (s *ConnectionService) ListConnections(ctx context.Context, memberID string) ([]string, error) {
	return s.edges.ListConnectedMembers(ctx, memberID)
}

// AreConnected reports whether an accepted edge joins the two members.
func (s *ConnectionService) AreConnected(ctx context.Context, a, b string) (bool, error) {
	if a == b {
		return false, nil
	}
	return s.edges.AreConnected(ctx, a, b)
}

// PairStatus tells the caller where they stand with another member.
func (s *ConnectionService) PairStatus(ctx context.Context, memberID, counterpartyID string) (models.PairStatus, *models.ConnectionEdge, error) {
	if memberID == counterpartyID {
		return "", nil, ErrSelfRequest
	}

	edge, err := s.edges.GetPairEdge(ctx, memberID, counterpartyID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return models.PairNotConnected, nil, nil
		}
		return "", nil, err
	}

	switch edge.Status {
	case models.ConnectionAccepted:
		return models.PairConnected, edge, nil
	case models.ConnectionPending:
		if edge.RequesterID == memberID {
			return models.PairPendingSent, edge, nil
		}
		return models.PairPendingRecv, edge, nil
	default:
		return models.PairNotConnected, nil, nil
	}
}

func (s *ConnectionService) clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	if limit > s.maxPageSize {
		limit = s.maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
