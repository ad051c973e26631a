package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
	"github.com/alumnet/alumnet/cmd/alumnet/repository"
	"github.com/alumnet/alumnet/common/clients"
	"github.com/alumnet/alumnet/common/logger"
)

func testLogger() *logger.Logger {
	return logger.New("error", "json")
}

// fakeEdgeStore mirrors the Postgres repository's semantics, including the
// partial unique index on the pair key, so concurrency behavior can be
// exercised without a database.
type fakeEdgeStore struct {
	mu    sync.Mutex
	edges map[uuid.UUID]*models.ConnectionEdge
}

func newFakeEdgeStore() *fakeEdgeStore {
	return &fakeEdgeStore{edges: make(map[uuid.UUID]*models.ConnectionEdge)}
}

func (f *fakeEdgeStore) Insert(_ context.Context, edge *models.ConnectionEdge) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := models.PairKey(edge.RequesterID, edge.RecipientID)
	for _, e := range f.edges {
		elo, ehi := models.PairKey(e.RequesterID, e.RecipientID)
		if elo == lo && ehi == hi && e.Status != models.ConnectionRejected {
			return repository.ErrDuplicatePair
		}
	}
	cp := *edge
	f.edges[edge.EdgeID] = &cp
	return nil
}

func (f *fakeEdgeStore) GetByID(_ context.Context, edgeID uuid.UUID) (*models.ConnectionEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.edges[edgeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEdgeStore) GetPairEdge(_ context.Context, a, b string) (*models.ConnectionEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := models.PairKey(a, b)
	for _, e := range f.edges {
		elo, ehi := models.PairKey(e.RequesterID, e.RecipientID)
		if elo == lo && ehi == hi && e.Status != models.ConnectionRejected {
			cp := *e
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeEdgeStore) UpdateStatusIfPending(_ context.Context, edgeID uuid.UUID, status models.ConnectionStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.edges[edgeID]
	if !ok || e.Status != models.ConnectionPending {
		return false, nil
	}
	now := time.Now()
	e.Status = status
	e.UpdatedAt = now
	e.RespondedAt = &now
	return true, nil
}

func (f *fakeEdgeStore) DeletePendingFrom(_ context.Context, requesterID, recipientID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.edges {
		if e.RequesterID == requesterID && e.RecipientID == recipientID && e.Status == models.ConnectionPending {
			delete(f.edges, id)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEdgeStore) DeleteAccepted(_ context.Context, a, b string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := models.PairKey(a, b)
	for id, e := range f.edges {
		elo, ehi := models.PairKey(e.RequesterID, e.RecipientID)
		if elo == lo && ehi == hi && e.Status == models.ConnectionAccepted {
			delete(f.edges, id)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeEdgeStore) ListPending(_ context.Context, memberID string, direction models.Direction, limit, offset int) ([]*models.ConnectionEdge, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.ConnectionEdge
	for _, e := range f.edges {
		if e.Status != models.ConnectionPending {
			continue
		}
		if direction == models.DirectionIncoming && e.RecipientID == memberID ||
			direction == models.DirectionOutgoing && e.RequesterID == memberID {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeEdgeStore) ListConnectedMembers(_ context.Context, memberID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, e := range f.edges {
		if e.Status != models.ConnectionAccepted {
			continue
		}
		switch memberID {
		case e.RequesterID:
			out = append(out, e.RecipientID)
		case e.RecipientID:
			out = append(out, e.RequesterID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeEdgeStore) AreConnected(_ context.Context, a, b string) (bool, error) {
	edge, err := f.GetPairEdge(context.Background(), a, b)
	if err != nil {
		return false, nil
	}
	return edge.Status == models.ConnectionAccepted, nil
}

// fakeMemberDirectory serves a fixed set of members.
type fakeMemberDirectory struct {
	members map[string]*clients.Member
}

func newFakeMemberDirectory(ids ...string) *fakeMemberDirectory {
	m := make(map[string]*clients.Member, len(ids))
	for _, id := range ids {
		m[id] = &clients.Member{ID: id, Role: "alumni"}
	}
	return &fakeMemberDirectory{members: m}
}

func (f *fakeMemberDirectory) GetMember(_ context.Context, memberID string) (*clients.Member, error) {
	m, ok := f.members[memberID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", clients.ErrMemberNotFound, memberID)
	}
	return m, nil
}

// fakeCodeStore applies the same guarded-consume rule as the SQL version.
type fakeCodeStore struct {
	mu    sync.Mutex
	codes map[string]*models.VerificationCode
	now   func() time.Time
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{codes: make(map[string]*models.VerificationCode), now: time.Now}
}

func (f *fakeCodeStore) Insert(_ context.Context, code *models.VerificationCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.codes[code.Code]; exists {
		return repository.ErrDuplicateCode
	}
	cp := *code
	f.codes[code.Code] = &cp
	return nil
}

func (f *fakeCodeStore) Get(_ context.Context, code string) (*models.VerificationCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCodeStore) Consume(_ context.Context, code, memberID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.codes[code]
	if !ok {
		return false, nil
	}
	now := f.now()
	if c.ConsumedAt != nil || !c.ExpiresAt.After(now) {
		return false, nil
	}
	if c.MemberID != nil && *c.MemberID != memberID {
		return false, nil
	}
	c.ConsumedBy = &memberID
	c.ConsumedAt = &now
	return true, nil
}

func (f *fakeCodeStore) Stats(_ context.Context) (*models.CodeStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &models.CodeStats{}
	now := f.now()
	for _, c := range f.codes {
		stats.Total++
		switch {
		case c.ConsumedAt != nil:
			stats.Used++
		case !c.ExpiresAt.After(now):
			stats.Expired++
		default:
			stats.Active++
		}
	}
	return stats, nil
}

// fakeReviewStore enforces one pending request per member, like the partial
// unique index does in Postgres.
type fakeReviewStore struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.VerificationRequest
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{requests: make(map[uuid.UUID]*models.VerificationRequest)}
}

func (f *fakeReviewStore) UpsertPending(_ context.Context, memberID string, claim models.VerificationClaim, contact models.ContactInfo) (*models.VerificationRequest, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	for _, r := range f.requests {
		if r.MemberID == memberID && r.Status == models.ReviewPending {
			r.Claim = claim
			r.Contact = contact
			r.UpdatedAt = now
			cp := *r
			return &cp, false, nil
		}
	}
	req := &models.VerificationRequest{
		RequestID: uuid.New(),
		MemberID:  memberID,
		Claim:     claim,
		Contact:   contact,
		Status:    models.ReviewPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.requests[req.RequestID] = req
	cp := *req
	return &cp, true, nil
}

func (f *fakeReviewStore) GetByID(_ context.Context, requestID uuid.UUID) (*models.VerificationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReviewStore) ListPending(_ context.Context, limit, offset int) ([]*models.VerificationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.VerificationRequest
	for _, r := range f.requests {
		if r.Status == models.ReviewPending {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeReviewStore) ResolvePending(_ context.Context, requestID uuid.UUID, status models.ReviewStatus, notes string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok || r.Status != models.ReviewPending {
		return false, nil
	}
	r.Status = status
	r.Notes = notes
	r.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeReviewStore) UpdatePendingClaim(_ context.Context, requestID uuid.UUID, claim models.VerificationClaim) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[requestID]
	if !ok || r.Status != models.ReviewPending {
		return false, nil
	}
	r.Claim = claim
	r.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeReviewStore) CountPending(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.requests {
		if r.Status == models.ReviewPending {
			n++
		}
	}
	return n, nil
}

// fakeFlagStore records verified members and the method that verified them.
type fakeFlagStore struct {
	mu      sync.Mutex
	methods map[string]models.VerificationMethod
}

func newFakeFlagStore() *fakeFlagStore {
	return &fakeFlagStore{methods: make(map[string]models.VerificationMethod)}
}

func (f *fakeFlagStore) MarkVerified(_ context.Context, memberID string, method models.VerificationMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.methods[memberID] = method
	return nil
}

func (f *fakeFlagStore) IsVerified(_ context.Context, memberID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.methods[memberID]
	return ok, nil
}

func (f *fakeFlagStore) CountVerified(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return int64(len(f.methods)), nil
}

// fakeRosterStore serves a fixed roster in load order.
type fakeRosterStore struct {
	records []models.RosterRecord
}

func (f *fakeRosterStore) LoadAll(_ context.Context) ([]models.RosterRecord, error) {
	return f.records, nil
}
