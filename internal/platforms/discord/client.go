package discord

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// Client is a thin wrapper over the channel message endpoint.
// Construct it only after a successful Authenticate with a resolved
// channel.
type Client struct {
	m    *Manager
	http *http.Client
}

// NewClient wraps an authenticated manager.
func NewClient(m *Manager) (*Client, error) {
	if m.botToken == "" {
		return nil, fmt.Errorf("discord: %w", domain.ErrAuthRequired)
	}
	if m.channelID == "" {
		return nil, fmt.Errorf("%w: no channel resolved, set %s", domain.ErrInvalidInput, EnvChannelName)
	}
	return &Client{m: m, http: &http.Client{Timeout: 30 * time.Second}}, nil
}

// Publish sends the post as a channel message. Image URLs ride along
// in the content; Discord unfurls them into embeds.
func (c *Client) Publish(ctx context.Context, post domain.Post) error {
	content := post.Render()
	for _, u := range post.ImageURLs {
		content += "\n" + u
	}
	_, err := c.Post(ctx, content)
	return err
}

// Post sends a message to the resolved channel and returns its id.
func (c *Client) Post(ctx context.Context, content string) (string, error) {
	if content == "" {
		return "", fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}
	var resp struct {
		ID string `json:"id"`
	}
	u := fmt.Sprintf("%s/channels/%s/messages", APIURL, c.m.channelID)
	body := map[string]string{"content": content}
	if err := platforms.PostJSON(ctx, c.http, u, "Bot "+c.m.botToken, body, &resp); err != nil {
		return "", fmt.Errorf("discord post: %w", err)
	}
	logger.Info("discord: posted message %s", resp.ID)
	return resp.ID, nil
}

// Delete removes a message from the resolved channel.
func (c *Client) Delete(ctx context.Context, messageID string) error {
	u := fmt.Sprintf("%s/channels/%s/messages/%s", APIURL, c.m.channelID, messageID)
	if err := platforms.DoJSON(ctx, c.http, "DELETE", u, "Bot "+c.m.botToken, nil, nil); err != nil {
		return fmt.Errorf("discord delete %s: %w", messageID, err)
	}
	return nil
}
