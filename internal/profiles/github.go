package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

const DefaultBaseURL = "https://api.github.com"

var (
	// ErrNotFound means the directory has no such handle (HTTP 404).
	ErrNotFound = errors.New("profile not found")
	// ErrMalformed means the response body was not a profile object.
	ErrMalformed = errors.New("malformed profile response")
)

// StatusError is any other non-2xx answer from the directory.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("profile lookup: unexpected status %d", e.Code) }

// maxBody bounds how much of a response is read.
const maxBody = 1 << 20

// GitHubClient fetches profile cards from the GitHub users API.
type GitHubClient struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client

	group singleflight.Group
}

// defaultTimeout bounds a lookup when no timeout is configured.
const defaultTimeout = 10 * time.Second

// NewGitHubClient returns a client for base (DefaultBaseURL if empty).
func NewGitHubClient(base string, timeout time.Duration) *GitHubClient {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &GitHubClient{
		BaseURL:   strings.TrimRight(base, "/"),
		UserAgent: "starmatch-server",
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// Fetch performs GET {base}/users/{handle}. Concurrent calls for the same
// handle share one request; each caller receives the same record.
//
// The shared request is detached from any single caller's cancellation and
// bounded by the client timeout instead. A cancelled caller returns its own
// ctx.Err() and leaves the request running for the others.
func (c *GitHubClient) Fetch(ctx context.Context, handle string) (Record, error) {
	ch := c.group.DoChan(strings.ToLower(handle), func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), handle)
	})
	select {
	case <-ctx.Done():
		return Record{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Record{}, res.Err
		}
		return res.Val.(Record), nil
	}
}

func (c *GitHubClient) fetch(ctx context.Context, handle string) (Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/users/"+url.PathEscape(handle), nil)
	if err != nil {
		return Record{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return Record{}, fmt.Errorf("profile lookup %s: %w", handle, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Record{}, ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Record{}, &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return Record{}, fmt.Errorf("profile lookup %s: %w", handle, err)
	}
	return decodeUser(body, handle)
}

// decodeUser maps a users API object onto a Record. The name, avatar_url and
// company keys must be present; null values map to "".
func decodeUser(body []byte, handle string) (Record, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return Record{}, ErrMalformed
	}

	field := func(key string, required bool) (string, error) {
		msg, ok := raw[key]
		if !ok {
			if required {
				return "", fmt.Errorf("%w: missing %q", ErrMalformed, key)
			}
			return "", nil
		}
		var s *string
		if err := json.Unmarshal(msg, &s); err != nil {
			return "", fmt.Errorf("%w: %q is not a string", ErrMalformed, key)
		}
		if s == nil {
			return "", nil
		}
		return *s, nil
	}

	var rec Record
	var err error
	if rec.DisplayName, err = field("name", true); err != nil {
		return Record{}, err
	}
	if rec.AvatarURL, err = field("avatar_url", true); err != nil {
		return Record{}, err
	}
	if rec.Organization, err = field("company", true); err != nil {
		return Record{}, err
	}
	if rec.Handle, err = field("login", false); err != nil {
		return Record{}, err
	}
	if rec.Handle == "" {
		rec.Handle = handle
	}
	return rec, nil
}
