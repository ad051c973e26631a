package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alumnet/alumnet/common/cache"
)

// MemberSource is anything that can resolve a member by ID.
type MemberSource interface {
	GetMember(ctx context.Context, memberID string) (*Member, error)
}

// CachedMemberDirectory wraps a member source with a short-TTL read-through
// cache. Every connection request resolves its recipient, and the same
// members recur in bursts, so even a small window cuts most directory calls.
// Misses are not cached; a member created moments ago must resolve.
type CachedMemberDirectory struct {
	source MemberSource
	cache  cache.Cache
	ttl    time.Duration
	logger Logger
}

// NewCachedMemberDirectory creates a caching wrapper around source
func NewCachedMemberDirectory(source MemberSource, c cache.Cache, ttl time.Duration, logger Logger) *CachedMemberDirectory {
	return &CachedMemberDirectory{
		source: source,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// GetMember resolves a member, serving from cache when fresh
func (d *CachedMemberDirectory) GetMember(ctx context.Context, memberID string) (*Member, error) {
	key := "member:" + memberID

	if raw, ok, err := d.cache.Get(ctx, key); err == nil && ok {
		var member Member
		if err := json.Unmarshal(raw, &member); err == nil {
			return &member, nil
		}
		// A corrupt entry falls through to the source and gets rewritten.
	}

	member, err := d.source.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(member)
	if err != nil {
		return nil, fmt.Errorf("marshal member for cache: %w", err)
	}
	if err := d.cache.Set(ctx, key, raw, d.ttl); err != nil {
		d.logger.Warn("member cache write failed", "member_id", memberID, "error", err)
	}

	return member, nil
}
