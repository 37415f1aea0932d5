package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coinvest-api/internal/core/domain"
)

// SupabaseConfig configures the GoTrue admin client
type SupabaseConfig struct {
	ProjectURL     string
	ServiceRoleKey string
	Timeout        time.Duration
}

// SupabaseProvider mirrors roles into Supabase Auth app_metadata
type SupabaseProvider struct {
	baseURL string
	key     string
	client  *http.Client
}

// NewSupabaseProvider creates a Supabase Auth admin client
func NewSupabaseProvider(cfg SupabaseConfig) (*SupabaseProvider, error) {
	if cfg.ProjectURL == "" {
		return nil, fmt.Errorf("project URL is required")
	}
	if cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("service role key is required")
	}
	if _, err := url.Parse(cfg.ProjectURL); err != nil {
		return nil, fmt.Errorf("invalid project URL: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &SupabaseProvider{
		baseURL: strings.TrimRight(cfg.ProjectURL, "/") + "/auth/v1",
		key:     cfg.ServiceRoleKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

// Name returns the provider name
func (p *SupabaseProvider) Name() string {
	return "supabase"
}

type appMetadataUpdate struct {
	AppMetadata map[string]string `json:"app_metadata"`
}

// SetRole writes app_metadata.role for a user
func (p *SupabaseProvider) SetRole(ctx context.Context, userID string, role domain.Role) error {
	body, err := json.Marshal(appMetadataUpdate{AppMetadata: map[string]string{"role": string(role)}})
	if err != nil {
		return err
	}

	endpoint := p.baseURL + "/admin/users/" + url.PathEscape(userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", p.key)
	req.Header.Set("Authorization", "Bearer "+p.key)

	resp, err := p.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &urlErr) && urlErr.Timeout()) {
			return fmt.Errorf("%w: supabase admin: %v", domain.ErrUnavailable, err)
		}
		return fmt.Errorf("supabase admin: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("supabase user %s: %w", userID, domain.ErrNotFound)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: supabase admin returned %d: %s", domain.ErrUnavailable, resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return fmt.Errorf("supabase admin returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
}
