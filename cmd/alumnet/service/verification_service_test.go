package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/common/notify"
	"github.com/alumnet/alumnet/common/validation"
)

type verificationFixture struct {
	svc        *VerificationService
	codes      *fakeCodeStore
	reviews    *fakeReviewStore
	flags      *fakeFlagStore
	candidates *MemoryCandidateStore
	notifier   *notify.MemoryNotifier
	roster     *RosterIndex
}

func newVerificationFixture(t *testing.T, records []models.RosterRecord) *verificationFixture {
	t.Helper()

	codes := newFakeCodeStore()
	reviews := newFakeReviewStore()
	flags := newFakeFlagStore()
	candidates := NewMemoryCandidateStore(15 * time.Minute)
	notifier := notify.NewMemoryNotifier()
	log := testLogger()

	roster := NewRosterIndex(&fakeRosterStore{records: records}, log)
	require.NoError(t, roster.Reload(context.Background()))

	svc := NewVerificationService(
		codes, reviews, flags,
		roster, NewMatcher(0.4, 5), candidates,
		notifier, validation.NewClaimValidator(), log,
		10, 7*24*time.Hour,
	)
	return &verificationFixture{
		svc:        svc,
		codes:      codes,
		reviews:    reviews,
		flags:      flags,
		candidates: candidates,
		notifier:   notifier,
		roster:     roster,
	}
}

func TestVerifyByCode_HappyPath(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	minted, err := fx.svc.IssueCodes(ctx, "admin-1", nil, 1)
	require.NoError(t, err)
	require.Len(t, minted, 1)
	require.Len(t, minted[0].Code, 10)

	require.NoError(t, fx.svc.VerifyByCode(ctx, "alice", minted[0].Code))

	verified, err := fx.svc.IsVerifiedAlumni(ctx, "alice")
	require.NoError(t, err)
	require.True(t, verified)
}

func TestVerifyByCode_SingleUse(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	minted, err := fx.svc.IssueCodes(ctx, "admin-1", nil, 1)
	require.NoError(t, err)
	code := minted[0].Code

	require.NoError(t, fx.svc.VerifyByCode(ctx, "alice", code))
	require.ErrorIs(t, fx.svc.VerifyByCode(ctx, "bob", code), ErrInvalidCode)

	verified, err := fx.svc.IsVerifiedAlumni(ctx, "bob")
	require.NoError(t, err)
	require.False(t, verified)
}

func TestVerifyByCode_ConcurrentRedeemVerifiesOne(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	minted, err := fx.svc.IssueCodes(ctx, "admin-1", nil, 1)
	require.NoError(t, err)
	code := minted[0].Code

	members := []string{"alice", "bob", "carol", "dave"}
	results := make([]error, len(members))
	var wg sync.WaitGroup
	for i, m := range members {
		wg.Add(1)
		go func(i int, m string) {
			defer wg.Done()
			results[i] = fx.svc.VerifyByCode(ctx, m, code)
		}(i, m)
	}
	wg.Wait()

	var succeeded int
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrInvalidCode)
		}
	}
	require.Equal(t, 1, succeeded)

	verified, err := fx.flags.CountVerified(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), verified)
}

func TestVerifyByCode_BoundMemberMismatch(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	bob := "bob"
	minted, err := fx.svc.IssueCodes(ctx, "admin-1", &bob, 1)
	require.NoError(t, err)

	err = fx.svc.VerifyByCode(ctx, "alice", minted[0].Code)
	require.ErrorIs(t, err, ErrMemberMismatch)

	// The mismatch must not burn the code for its rightful owner.
	require.NoError(t, fx.svc.VerifyByCode(ctx, bob, minted[0].Code))
}

func TestVerifyByCode_UnknownCode(t *testing.T) {
	fx := newVerificationFixture(t, nil)

	err := fx.svc.VerifyByCode(context.Background(), "alice", "NOSUCHCODE")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestVerifyByCode_ExpiredCode(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	minted, err := fx.svc.IssueCodes(ctx, "admin-1", nil, 1)
	require.NoError(t, err)

	fx.codes.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }

	err = fx.svc.VerifyByCode(ctx, "alice", minted[0].Code)
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestCheckAgainstRoster_OffersCandidates(t *testing.T) {
	fx := newVerificationFixture(t, testRoster)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	candidates, escalated, err := fx.svc.CheckAgainstRoster(ctx, "alice", claim)
	require.NoError(t, err)
	require.False(t, escalated)
	require.NotEmpty(t, candidates)

	// A verified flag must not flip without explicit confirmation, even for
	// a perfect score.
	verified, err := fx.svc.IsVerifiedAlumni(ctx, "alice")
	require.NoError(t, err)
	require.False(t, verified)
}

func TestCheckAgainstRoster_EmptyEscalatesOnce(t *testing.T) {
	fx := newVerificationFixture(t, testRoster)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Someone Else", Batch: "1999", Branch: "ME"}

	_, escalated, err := fx.svc.CheckAgainstRoster(ctx, "alice", claim)
	require.NoError(t, err)
	require.True(t, escalated)

	// Calling again while a review is pending must not create a second one.
	_, escalated, err = fx.svc.CheckAgainstRoster(ctx, "alice", claim)
	require.NoError(t, err)
	require.True(t, escalated)

	pending, err := fx.reviews.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)

	// Only the first escalation notifies.
	require.Len(t, fx.notifier.Events(), 1)
}

func TestCheckAgainstRoster_InvalidClaim(t *testing.T) {
	fx := newVerificationFixture(t, testRoster)

	claim := models.VerificationClaim{Name: "", Batch: "2015", Branch: "CS"}
	_, _, err := fx.svc.CheckAgainstRoster(context.Background(), "alice", claim)
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestConfirmMatch_VerifiesOfferedCandidate(t *testing.T) {
	fx := newVerificationFixture(t, testRoster)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	candidates, _, err := fx.svc.CheckAgainstRoster(ctx, "alice", claim)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	require.NoError(t, fx.svc.ConfirmMatch(ctx, "alice", candidates[0].Record.RollNo))

	verified, err := fx.svc.IsVerifiedAlumni(ctx, "alice")
	require.NoError(t, err)
	require.True(t, verified)
}

func TestConfirmMatch_RejectsUnofferedRollNo(t *testing.T) {
	fx := newVerificationFixture(t, testRoster)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	_, _, err := fx.svc.CheckAgainstRoster(ctx, "alice", claim)
	require.NoError(t, err)

	// EE-2015-001 exists in the roster but was never offered to alice.
	err = fx.svc.ConfirmMatch(ctx, "alice", "EE-2015-001")
	require.ErrorIs(t, err, ErrStaleCandidate)
}

func TestConfirmMatch_WindowExpires(t *testing.T) {
	fx := newVerificationFixture(t, testRoster)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	candidates, _, err := fx.svc.CheckAgainstRoster(ctx, "alice", claim)
	require.NoError(t, err)

	fx.candidates.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	err = fx.svc.ConfirmMatch(ctx, "alice", candidates[0].Record.RollNo)
	require.ErrorIs(t, err, ErrStaleCandidate)
}

func TestConfirmMatch_WithoutCheck(t *testing.T) {
	fx := newVerificationFixture(t, testRoster)

	err := fx.svc.ConfirmMatch(context.Background(), "alice", "CS-2015-001")
	require.ErrorIs(t, err, ErrStaleCandidate)
}

func TestSubmitManualReview_IdempotentPerMember(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	first, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{Phone: "555-0100"})
	require.NoError(t, err)

	claim.Name = "Jonathan Doe"
	second, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)

	require.Equal(t, first.RequestID, second.RequestID)
	require.Equal(t, "Jonathan Doe", second.Claim.Name)

	pending, err := fx.reviews.CountPending(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), pending)
	require.Len(t, fx.notifier.Events(), 1)
}

func TestResolveManualReview_ApproveVerifies(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	req, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)

	resolved, err := fx.svc.ResolveManualReview(ctx, req.RequestID, models.DecisionApprove, "roster confirmed offline")
	require.NoError(t, err)
	require.Equal(t, models.ReviewApproved, resolved.Status)

	verified, err := fx.svc.IsVerifiedAlumni(ctx, "alice")
	require.NoError(t, err)
	require.True(t, verified)
}

func TestResolveManualReview_DenyAllowsResubmission(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	req, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)

	resolved, err := fx.svc.ResolveManualReview(ctx, req.RequestID, models.DecisionDeny, "no matching record")
	require.NoError(t, err)
	require.Equal(t, models.ReviewDenied, resolved.Status)

	verified, err := fx.svc.IsVerifiedAlumni(ctx, "alice")
	require.NoError(t, err)
	require.False(t, verified)

	// Denial leaves the member free to try again with a new request.
	again, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)
	require.NotEqual(t, req.RequestID, again.RequestID)
}

func TestResolveManualReview_AlreadyResolved(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	req, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)

	_, err = fx.svc.ResolveManualReview(ctx, req.RequestID, models.DecisionApprove, "")
	require.NoError(t, err)

	_, err = fx.svc.ResolveManualReview(ctx, req.RequestID, models.DecisionDeny, "")
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestResolveManualReview_UnknownRequest(t *testing.T) {
	fx := newVerificationFixture(t, nil)

	_, err := fx.svc.ResolveManualReview(context.Background(), uuid.New(), models.DecisionApprove, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAmendPendingClaim_MergePatch(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	req, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)

	patched, err := fx.svc.AmendPendingClaim(ctx, req.RequestID, []byte(`{"name":"John Doe","rollNo":"CS-2015-002"}`))
	require.NoError(t, err)
	require.Equal(t, "John Doe", patched.Claim.Name)
	require.Equal(t, "CS-2015-002", patched.Claim.RollNo)
	require.Equal(t, "2015", patched.Claim.Batch)
}

func TestAmendPendingClaim_InvalidResult(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	req, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)

	// Blanking the name leaves an invalid claim behind.
	_, err = fx.svc.AmendPendingClaim(ctx, req.RequestID, []byte(`{"name":null}`))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestAmendPendingClaim_ResolvedRequest(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	req, err := fx.svc.SubmitManualReview(ctx, "alice", claim, models.ContactInfo{})
	require.NoError(t, err)
	_, err = fx.svc.ResolveManualReview(ctx, req.RequestID, models.DecisionDeny, "")
	require.NoError(t, err)

	_, err = fx.svc.AmendPendingClaim(ctx, req.RequestID, []byte(`{"name":"John Doe"}`))
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestIssueCodes_CountBounds(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	_, err := fx.svc.IssueCodes(ctx, "admin-1", nil, 0)
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = fx.svc.IssueCodes(ctx, "admin-1", nil, 51)
	require.ErrorIs(t, err, ErrInvalidInput)

	minted, err := fx.svc.IssueCodes(ctx, "admin-1", nil, 5)
	require.NoError(t, err)
	require.Len(t, minted, 5)

	seen := make(map[string]bool)
	for _, c := range minted {
		require.False(t, seen[c.Code], "duplicate code minted")
		seen[c.Code] = true
	}
}

func TestStats(t *testing.T) {
	fx := newVerificationFixture(t, nil)
	ctx := context.Background()

	minted, err := fx.svc.IssueCodes(ctx, "admin-1", nil, 3)
	require.NoError(t, err)
	require.NoError(t, fx.svc.VerifyByCode(ctx, "alice", minted[0].Code))

	claim := models.VerificationClaim{Name: "Jon Doe", Batch: "2015", Branch: "CS"}
	_, err = fx.svc.SubmitManualReview(ctx, "bob", claim, models.ContactInfo{})
	require.NoError(t, err)

	codeStats, reviewStats, err := fx.svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(3), codeStats.Total)
	require.Equal(t, int64(1), codeStats.Used)
	require.Equal(t, int64(2), codeStats.Active)
	require.Equal(t, int64(1), reviewStats.PendingReviews)
	require.Equal(t, int64(1), reviewStats.Verified)
}
