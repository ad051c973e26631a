package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/cmd/alumnet/repository"
	"github.com/alumnet/alumnet/common/logger"
	"github.com/alumnet/alumnet/common/notify"
	"github.com/alumnet/alumnet/common/validation"
)

// CodeStore persists single-use verification codes.
type CodeStore interface {
	Insert(ctx context.Context, code *models.VerificationCode) error
	Get(ctx context.Context, code string) (*models.VerificationCode, error)
	Consume(ctx context.Context, code, memberID string) (bool, error)
	Stats(ctx context.Context) (*models.CodeStats, error)
}

// ReviewStore persists manual-review requests.
type ReviewStore interface {
	UpsertPending(ctx context.Context, memberID string, claim models.VerificationClaim, contact models.ContactInfo) (*models.VerificationRequest, bool, error)
	GetByID(ctx context.Context, requestID uuid.UUID) (*models.VerificationRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]*models.VerificationRequest, error)
	ResolvePending(ctx context.Context, requestID uuid.UUID, status models.ReviewStatus, notes string) (bool, error)
	UpdatePendingClaim(ctx context.Context, requestID uuid.UUID, claim models.VerificationClaim) (bool, error)
	CountPending(ctx context.Context) (int64, error)
}

// VerifiedFlagStore owns the per-member verified flag.
type VerifiedFlagStore interface {
	MarkVerified(ctx context.Context, memberID string, method models.VerificationMethod) error
	IsVerified(ctx context.Context, memberID string) (bool, error)
	CountVerified(ctx context.Context) (int64, error)
}

// VerificationService orchestrates the three verification paths and is the
// only writer of the verified flag.
type VerificationService struct {
	codes      CodeStore
	reviews    ReviewStore
	flags      VerifiedFlagStore
	roster     *RosterIndex
	matcher    *Matcher
	candidates CandidateStore
	notifier   notify.Notifier
	validator  *validation.ClaimValidator
	log        *logger.Logger

	codeLength int
	codeTTL    time.Duration
	now        func() time.Time
}

func NewVerificationService(
	codes CodeStore,
	reviews ReviewStore,
	flags VerifiedFlagStore,
	roster *RosterIndex,
	matcher *Matcher,
	candidates CandidateStore,
	notifier notify.Notifier,
	validator *validation.ClaimValidator,
	log *logger.Logger,
	codeLength int,
	codeTTL time.Duration,
) *VerificationService {
	return &VerificationService{
		codes:      codes,
		reviews:    reviews,
		flags:      flags,
		roster:     roster,
		matcher:    matcher,
		candidates: candidates,
		notifier:   notifier,
		validator:  validator,
		log:        log,
		codeLength: codeLength,
		codeTTL:    codeTTL,
		now:        time.Now,
	}
}

// VerifyByCode consumes a verification code on behalf of memberID and flips
// their verified flag. The consume step is a single guarded write, so a code
// redeemed concurrently by two callers verifies at most one of them.
func (s *VerificationService) VerifyByCode(ctx context.Context, memberID, code string) error {
	if code == "" {
		return fmt.Errorf("%w: code is required", ErrInvalidInput)
	}

	stored, err := s.codes.Get(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if stored.MemberID != nil && *stored.MemberID != memberID {
		return ErrMemberMismatch
	}

	consumed, err := s.codes.Consume(ctx, code, memberID)
	if err != nil {
		return err
	}
	if !consumed {
		// Expired, already used, or lost a race to another redeemer.
		return ErrInvalidCode
	}

	if err := s.flags.MarkVerified(ctx, memberID, models.MethodCode); err != nil {
		return err
	}
	s.log.WithMemberID(memberID).Info("member verified", "method", models.MethodCode)
	return nil
}

// CheckAgainstRoster ranks the claim against the roster snapshot. A
// non-empty result is stored in the candidate window and returned for the
// member to confirm; an empty result escalates straight to manual review and
// reports that via the escalated flag.
func (s *VerificationService) CheckAgainstRoster(ctx context.Context, memberID string, claim models.VerificationClaim) ([]models.MatchCandidate, bool, error) {
	if err := s.validator.ValidateClaim(claim.Name, claim.RollNo, claim.Batch, claim.Branch); err != nil {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	candidates := s.matcher.Rank(claim, s.roster.Snapshot())
	if len(candidates) == 0 {
		if err := s.escalate(ctx, memberID, claim, models.ContactInfo{}); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	rollNos := make([]string, len(candidates))
	for i, c := range candidates {
		rollNos[i] = c.Record.RollNo
	}
	if err := s.candidates.Put(ctx, memberID, rollNos); err != nil {
		return nil, false, fmt.Errorf("store candidate window: %w", err)
	}

	s.log.WithMemberID(memberID).Info("roster candidates offered", "count", len(candidates))
	return candidates, false, nil
}

// ConfirmMatch verifies the member against a roster record they were
// recently offered. Roll numbers outside the current candidate window are
// rejected so a member cannot confirm a record they never saw.
func (s *VerificationService) ConfirmMatch(ctx context.Context, memberID, rollNo string) error {
	if rollNo == "" {
		return fmt.Errorf("%w: roll number is required", ErrInvalidInput)
	}

	offered, err := s.candidates.Get(ctx, memberID)
	if err != nil {
		return err
	}
	found := false
	for _, r := range offered {
		if r == rollNo {
			found = true
			break
		}
	}
	if !found {
		return ErrStaleCandidate
	}

	if err := s.flags.MarkVerified(ctx, memberID, models.MethodRoster); err != nil {
		return err
	}
	if err := s.candidates.Clear(ctx, memberID); err != nil {
		s.log.Warn("clear candidate window failed", "member_id", memberID, "error", err)
	}

	s.log.WithMemberID(memberID).Info("member verified", "method", models.MethodRoster, "roll_no", rollNo)
	return nil
}

// SubmitManualReview queues the claim for human adjudication. A member never
// holds more than one pending request; resubmitting while one is open
// replaces the stored claim instead of creating a second row.
func (s *VerificationService) SubmitManualReview(ctx context.Context, memberID string, claim models.VerificationClaim, contact models.ContactInfo) (*models.VerificationRequest, error) {
	if err := s.validator.ValidateClaim(claim.Name, claim.RollNo, claim.Batch, claim.Branch); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	req, inserted, err := s.reviews.UpsertPending(ctx, memberID, claim, contact)
	if err != nil {
		return nil, err
	}

	if inserted {
		s.notifyReviewQueued(ctx, req)
	}
	s.log.WithMemberID(memberID).Info("manual review submitted",
		"request_id", req.RequestID, "new", inserted)
	return req, nil
}

// ResolveManualReview finalizes a pending request. Approval also flips the
// member's verified flag; denial leaves them free to resubmit.
func (s *VerificationService) ResolveManualReview(ctx context.Context, requestID uuid.UUID, decision models.ReviewDecision, notes string) (*models.VerificationRequest, error) {
	var target models.ReviewStatus
	switch decision {
	case models.DecisionApprove:
		target = models.ReviewApproved
	case models.DecisionDeny:
		target = models.ReviewDenied
	default:
		return nil, fmt.Errorf("%w: decision must be approve or deny", ErrInvalidInput)
	}

	req, err := s.reviews.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Status != models.ReviewPending {
		return nil, ErrInvalidState
	}

	ok, err := s.reviews.ResolvePending(ctx, requestID, target, notes)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	if target == models.ReviewApproved {
		if err := s.flags.MarkVerified(ctx, req.MemberID, models.MethodManual); err != nil {
			return nil, err
		}
	}

	now := s.now()
	req.Status = target
	req.Notes = notes
	req.UpdatedAt = now

	s.log.WithMemberID(req.MemberID).Info("manual review resolved",
		"request_id", requestID, "status", target)
	return req, nil
}

// AmendPendingClaim applies an RFC 7386 merge patch to the claim of a
// pending request, for admins fixing typos before ruling on it.
func (s *VerificationService) AmendPendingClaim(ctx context.Context, requestID uuid.UUID, patch []byte) (*models.VerificationRequest, error) {
	req, err := s.reviews.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if req.Status != models.ReviewPending {
		return nil, ErrInvalidState
	}

	current, err := json.Marshal(req.Claim)
	if err != nil {
		return nil, fmt.Errorf("marshal claim: %w", err)
	}
	merged, err := jsonpatch.MergePatch(current, patch)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	var claim models.VerificationClaim
	if err := json.Unmarshal(merged, &claim); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}
	if err := s.validator.ValidateClaim(claim.Name, claim.RollNo, claim.Batch, claim.Branch); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	ok, err := s.reviews.UpdatePendingClaim(ctx, requestID, claim)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidState
	}

	req.Claim = claim
	req.UpdatedAt = s.now()
	return req, nil
}

// ListPendingReviews returns the open review queue, oldest first.
func (s *VerificationService) ListPendingReviews(ctx context.Context, limit, offset int) ([]*models.VerificationRequest, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.reviews.ListPending(ctx, limit, offset)
}

// IssueCodes mints count single-use codes, optionally bound to one member.
func (s *VerificationService) IssueCodes(ctx context.Context, issuedBy string, memberID *string, count int) ([]*models.VerificationCode, error) {
	if count < 1 || count > 50 {
		return nil, fmt.Errorf("%w: count must be between 1 and 50", ErrInvalidInput)
	}

	now := s.now()
	minted := make([]*models.VerificationCode, 0, count)
	for i := 0; i < count; i++ {
		code, err := s.mintCode(ctx, issuedBy, memberID, now)
		if err != nil {
			return nil, err
		}
		minted = append(minted, code)
	}

	s.log.Info("verification codes issued", "issued_by", issuedBy, "count", count)
	return minted, nil
}

func (s *VerificationService) mintCode(ctx context.Context, issuedBy string, memberID *string, now time.Time) (*models.VerificationCode, error) {
	// Collisions are vanishingly rare at this length but the column is a
	// primary key, so retry a couple of times rather than surface a 500.
	for attempt := 0; attempt < 3; attempt++ {
		value, err := randomCode(s.codeLength)
		if err != nil {
			return nil, err
		}
		code := &models.VerificationCode{
			Code:      value,
			MemberID:  memberID,
			IssuedBy:  issuedBy,
			ExpiresAt: now.Add(s.codeTTL),
			CreatedAt: now,
		}
		if err := s.codes.Insert(ctx, code); err != nil {
			if errors.Is(err, repository.ErrDuplicateCode) {
				continue
			}
			return nil, err
		}
		return code, nil
	}
	return nil, fmt.Errorf("mint code: exhausted retries")
}

// IsVerifiedAlumni reports the member's verified flag.
func (s *VerificationService) IsVerifiedAlumni(ctx context.Context, memberID string) (bool, error) {
	return s.flags.IsVerified(ctx, memberID)
}

// Stats aggregates code and review counters for the admin dashboard.
func (s *VerificationService) Stats(ctx context.Context) (*models.CodeStats, *models.ReviewStats, error) {
	codeStats, err := s.codes.Stats(ctx)
	if err != nil {
		return nil, nil, err
	}
	pending, err := s.reviews.CountPending(ctx)
	if err != nil {
		return nil, nil, err
	}
	verified, err := s.flags.CountVerified(ctx)
	if err != nil {
		return nil, nil, err
	}
	return codeStats, &models.ReviewStats{PendingReviews: pending, Verified: verified}, nil
}

func (s *VerificationService) escalate(ctx context.Context, memberID string, claim models.VerificationClaim, contact models.ContactInfo) error {
	req, inserted, err := s.reviews.UpsertPending(ctx, memberID, claim, contact)
	if err != nil {
		return err
	}
	if inserted {
		s.notifyReviewQueued(ctx, req)
	}
	s.log.WithMemberID(memberID).Info("claim escalated to manual review",
		"request_id", req.RequestID, "new", inserted)
	return nil
}

// notifyReviewQueued pushes an advisory event to the admin channel. The
// request row is already durable and admins also poll the pending list, so a
// publish failure is logged rather than surfaced to the member.
func (s *VerificationService) notifyReviewQueued(ctx context.Context, req *models.VerificationRequest) {
	event := notify.ReviewQueuedEvent{
		RequestID: req.RequestID.String(),
		MemberID:  req.MemberID,
		QueuedAt:  req.CreatedAt,
	}
	if err := s.notifier.ReviewQueued(ctx, event); err != nil {
		s.log.Warn("review notification failed", "request_id", req.RequestID, "error", err)
	}
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randomCode draws length characters from an alphabet with ambiguous glyphs
// removed, since codes are read out over phone and email.
func randomCode(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}
