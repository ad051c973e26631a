package service

import "errors"

// Domain error taxonomy. Every rejected path maps to exactly one of these so
// callers can route the member to the next action; handlers translate them
// to HTTP status codes in one place. None of them is fatal to the process.
var (
	// ErrInvalidInput means a malformed or oversized claim, message or parameter.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the edge, request or member does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden means the actor lacks rights over the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrInvalidState means the action is illegal for the current status,
	// e.g. responding to an already-processed request.
	ErrInvalidState = errors.New("invalid state")

	// ErrDuplicateEdge means a pending or accepted edge already occupies the
	// pair, in either direction.
	ErrDuplicateEdge = errors.New("duplicate edge")

	// ErrSelfRequest means a member tried to act on themselves.
	ErrSelfRequest = errors.New("self request")

	// ErrInvalidCode means the verification code is unknown, expired or
	// already consumed.
	ErrInvalidCode = errors.New("invalid code")

	// ErrMemberMismatch means the code is bound to a different member.
	ErrMemberMismatch = errors.New("member mismatch")

	// ErrStaleCandidate means the confirmed roll number was not among the
	// candidates recently returned to this member.
	ErrStaleCandidate = errors.New("stale or unknown candidate")
)
