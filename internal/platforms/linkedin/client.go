package linkedin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// APIURL is the REST base. Overridable in tests.
var APIURL = "https://api.linkedin.com/v2"

// Client is a thin wrapper over the ugcPosts endpoints. Construct it
// only after a successful Authenticate.
type Client struct {
	m    *Manager
	http *http.Client
}

// NewClient wraps an authenticated manager.
func NewClient(m *Manager) (*Client, error) {
	if m.accessToken == "" || m.accountID == "" {
		return nil, fmt.Errorf("linkedin: %w", domain.ErrAuthRequired)
	}
	return &Client{m: m, http: &http.Client{Timeout: 30 * time.Second}}, nil
}

func (c *Client) authorURN() string {
	return "urn:li:person:" + c.m.accountID
}

// Publish shares the post as a member update, link attached as an
// article when present.
func (c *Client) Publish(ctx context.Context, post domain.Post) error {
	_, err := c.Post(ctx, post.StatusText, post.StatusLink)
	return err
}

// Post creates a member share and returns the ugcPost URN.
func (c *Client) Post(ctx context.Context, text, link string) (string, error) {
	if text == "" && link == "" {
		return "", fmt.Errorf("%w: empty post", domain.ErrInvalidInput)
	}

	content := map[string]any{
		"shareCommentary":    map[string]string{"text": text},
		"shareMediaCategory": "NONE",
	}
	if link != "" {
		content["shareMediaCategory"] = "ARTICLE"
		content["media"] = []map[string]any{{
			"status":      "READY",
			"originalUrl": link,
		}}
	}

	body := map[string]any{
		"author":         c.authorURN(),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": content,
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := platforms.PostJSON(ctx, c.http, APIURL+"/ugcPosts",
		"Bearer "+c.m.accessToken, body, &resp); err != nil {
		return "", fmt.Errorf("linkedin post: %w", err)
	}
	logger.Info("linkedin: posted %s", resp.ID)
	return resp.ID, nil
}

// Delete removes a ugcPost by URN.
func (c *Client) Delete(ctx context.Context, postURN string) error {
	u := fmt.Sprintf("%s/ugcPosts/%s", APIURL, url.PathEscape(postURN))
	if err := platforms.DoJSON(ctx, c.http, "DELETE", u,
		"Bearer "+c.m.accessToken, nil, nil); err != nil {
		return fmt.Errorf("linkedin delete %s: %w", postURN, err)
	}
	return nil
}
