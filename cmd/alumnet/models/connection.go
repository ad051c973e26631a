package models

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionStatus tracks the lifecycle of a connection edge
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// RespondAction is the recipient's decision on a pending request
type RespondAction string

const (
	ActionAccept RespondAction = "accept"
	ActionReject RespondAction = "reject"
)

// ConnectionEdge is a directed request that matures into an undirected
// relationship once accepted. At most one non-rejected edge exists per
// unordered member pair; the pair key columns carry that constraint.
type ConnectionEdge struct {
	EdgeID         uuid.UUID        `json:"id"`
	RequesterID    string           `json:"requesterId"`
	RecipientID    string           `json:"recipientId"`
	Status         ConnectionStatus `json:"status"`
	RequestMessage *string          `json:"requestMessage,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
	RespondedAt    *time.Time       `json:"respondedAt,omitempty"`
}

// PairKey returns the canonical ordering of two member IDs. Both the
// uniqueness constraint and pair-level queries key on it, so a request in
// either direction lands on the same slot.
func PairKey(a, b string) (lo, hi string) {
	if a < b {
		return a, b
	}
	return b, a
}

// PairStatus describes the relationship between two members as seen by one of them
type PairStatus string

const (
	PairNotConnected PairStatus = "not_connected"
	PairPendingSent  PairStatus = "pending"  // caller sent, awaiting the other party
	PairPendingRecv  PairStatus = "received" // other party sent, awaiting caller
	PairConnected    PairStatus = "connected"
)

// Direction selects which side of pending requests to list
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)
