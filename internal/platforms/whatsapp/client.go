package whatsapp

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

// Client is a thin wrapper over the Cloud API messages endpoint.
// Construct it only after a successful Authenticate.
type Client struct {
	m    *Manager
	http *http.Client
}

// NewClient wraps an authenticated manager.
func NewClient(m *Manager) (*Client, error) {
	if m.accessToken == "" || m.phoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp: %w", domain.ErrAuthRequired)
	}
	return &Client{m: m, http: &http.Client{Timeout: 30 * time.Second}}, nil
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/messages", GraphURL, url.PathEscape(c.m.phoneNumberID))
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func (r sendResponse) firstID() string {
	if len(r.Messages) == 0 {
		return ""
	}
	return r.Messages[0].ID
}

// Post sends a free-form text message to a recipient phone number.
func (c *Client) Post(ctx context.Context, to, text string) (string, error) {
	if to == "" {
		return "", fmt.Errorf("%w: recipient phone number required", domain.ErrInvalidInput)
	}
	if text == "" {
		return "", fmt.Errorf("%w: empty message", domain.ErrInvalidInput)
	}

	body := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]any{"body": text, "preview_url": true},
	}
	var resp sendResponse
	if err := platforms.PostJSON(ctx, c.http, c.messagesURL(),
		"Bearer "+c.m.accessToken, body, &resp); err != nil {
		return "", fmt.Errorf("whatsapp send: %w", err)
	}
	logger.Info("whatsapp: sent message %s", resp.firstID())
	return resp.firstID(), nil
}

// ScheduledSender binds the client to one recipient so a schedule
// drain can publish due posts through the Publisher port. The Cloud
// API has no broadcast feed, so every due post goes to that number.
type ScheduledSender struct {
	c  *Client
	to string
}

// SenderTo returns a scheduled-post sender for a recipient.
func (c *Client) SenderTo(to string) (*ScheduledSender, error) {
	if to == "" {
		return nil, fmt.Errorf("%w: recipient phone number required", domain.ErrInvalidInput)
	}
	return &ScheduledSender{c: c, to: to}, nil
}

// Publish sends a due scheduled post as a text message.
func (s *ScheduledSender) Publish(ctx context.Context, post domain.Post) error {
	_, err := s.c.Post(ctx, s.to, post.Render())
	return err
}

// Template sends a pre-approved template message, the only kind the
// Cloud API accepts outside a 24h customer-service window.
func (c *Client) Template(ctx context.Context, to, name, language string) (string, error) {
	if to == "" || name == "" {
		return "", fmt.Errorf("%w: recipient and template name required", domain.ErrInvalidInput)
	}
	if language == "" {
		language = "en_US"
	}

	body := map[string]any{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "template",
		"template": map[string]any{
			"name":     name,
			"language": map[string]string{"code": language},
		},
	}
	var resp sendResponse
	if err := platforms.PostJSON(ctx, c.http, c.messagesURL(),
		"Bearer "+c.m.accessToken, body, &resp); err != nil {
		return "", fmt.Errorf("whatsapp template send: %w", err)
	}
	logger.Info("whatsapp: sent template message %s", resp.firstID())
	return resp.firstID(), nil
}
