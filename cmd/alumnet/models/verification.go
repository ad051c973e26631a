package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationClaim is a member's self-reported identity. Transient input:
// it is only persisted as part of a manual-review request.
type VerificationClaim struct {
	Name   string `json:"name"`
	RollNo string `json:"rollNo,omitempty"`
	Batch  string `json:"batch"`
	Branch string `json:"branch"`
}

// ContactInfo is optional reachability data attached to a manual-review request
type ContactInfo struct {
	Phone          string `json:"phone,omitempty"`
	AlternateEmail string `json:"alternateEmail,omitempty"`
	LinkedIn       string `json:"linkedin,omitempty"`
}

// ReviewStatus tracks a manual verification request
type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending_review"
	ReviewApproved ReviewStatus = "approved"
	ReviewDenied   ReviewStatus = "denied"
)

// ReviewDecision is an admin's ruling on a pending request
type ReviewDecision string

const (
	DecisionApprove ReviewDecision = "approve"
	DecisionDeny    ReviewDecision = "deny"
)

// VerificationRequest is a manual-review fallback created when automated
// matching is inconclusive. One pending request per member; resubmission
// updates the stored claim in place.
type VerificationRequest struct {
	RequestID uuid.UUID         `json:"id"`
	MemberID  string            `json:"memberId"`
	Claim     VerificationClaim `json:"claim"`
	Contact   ContactInfo       `json:"contact"`
	Status    ReviewStatus      `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// VerificationCode is a single-use, time-scoped secret. Delivery happens out
// of band; this service only mints, binds and consumes codes.
type VerificationCode struct {
	Code       string     `json:"code"`
	MemberID   *string    `json:"memberId,omitempty"` // optional binding to one member
	IssuedBy   string     `json:"issuedBy"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	ConsumedBy *string    `json:"consumedBy,omitempty"`
	ConsumedAt *time.Time `json:"consumedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// VerificationMethod records which path flipped the verified flag
type VerificationMethod string

const (
	MethodCode   VerificationMethod = "code"
	MethodRoster VerificationMethod = "roster_match"
	MethodManual VerificationMethod = "manual_review"
)

// MatchCandidate is a roster record proposed as a possible match, with a
// similarity score in [0,1]. Computed, never persisted.
type MatchCandidate struct {
	Record     RosterRecord `json:"record"`
	Similarity float64      `json:"similarity"`
}

// CodeStats summarizes minted codes for the admin dashboard
type CodeStats struct {
	Total   int64 `json:"total"`
	Active  int64 `json:"active"`
	Used    int64 `json:"used"`
	Expired int64 `json:"expired"`
}

// ReviewStats summarizes the manual-review queue and verified population
type ReviewStats struct {
	PendingReviews int64 `json:"pendingReviews"`
	Verified       int64 `json:"verified"`
}
