package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrMemberNotFound is returned when the directory has no such member.
var ErrMemberNotFound = errors.New("member not found")

// Member is the directory's view of a platform member. Identity, role and
// profile data are owned by the auth/profile subsystem; this service only
// reads them.
type Member struct {
	ID             string `json:"id"`
	Role           string `json:"role"` // student | alumni | admin
	VerifiedAlumni bool   `json:"verifiedAlumni"`
}

// MemberDirectoryClient talks to the member directory collaborator
type MemberDirectoryClient struct {
	http    *HTTPClient
	baseURL string
}

// NewMemberDirectoryClient creates a directory client
func NewMemberDirectoryClient(baseURL string, timeout time.Duration, logger Logger) *MemberDirectoryClient {
	return &MemberDirectoryClient{
		http: NewHTTPClient(&http.Client{
			Timeout: timeout,
		}, logger),
		baseURL: baseURL,
	}
}

// GetMember fetches a member record by ID. A transport failure propagates
// immediately; retries are the caller's concern.
func (c *MemberDirectoryClient) GetMember(ctx context.Context, memberID string) (*Member, error) {
	url := fmt.Sprintf("%s/api/v1/members/%s", c.baseURL, memberID)

	resp, err := c.http.DoRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("member directory request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var member Member
		if err := json.NewDecoder(resp.Body).Decode(&member); err != nil {
			return nil, fmt.Errorf("decode member response: %w", err)
		}
		return &member, nil

	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)

	default:
		return nil, fmt.Errorf("member directory returned status %d", resp.StatusCode)
	}
}
