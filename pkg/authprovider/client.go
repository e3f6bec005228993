package authprovider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"expert-backend/internal/domain"
)

// Client talks to the auth provider's backend API.
type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		secretKey:  secretKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GetUser fetches a subject's profile. Transport errors, non-2xx statuses and
// undecodable bodies are all reported through the result's Err.
func (c *Client) GetUser(ctx context.Context, subjectID string) domain.ProfileResult {
	if subjectID == "" {
		return domain.ProfileResult{Err: fmt.Errorf("authprovider: empty subject id")}
	}

	endpoint := fmt.Sprintf("%s/v1/users/%s", c.baseURL, url.PathEscape(subjectID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.ProfileResult{Err: fmt.Errorf("authprovider: build request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.ProfileResult{Err: fmt.Errorf("authprovider: get user: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.ProfileResult{Err: &StatusError{StatusCode: resp.StatusCode}}
	}

	var profile domain.IdentityProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return domain.ProfileResult{Err: fmt.Errorf("authprovider: decode user: %w", err)}
	}
	return domain.ProfileResult{Profile: &profile}
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("authprovider: unexpected status %d", e.StatusCode)
}
