package instagram

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
	"github.com/agoraslabs/agoras-cli/internal/platforms/facebook"
)

// Client is a thin wrapper over the content-publish endpoints.
// Instagram publishing is a two-step container flow: create a media
// container from a public URL, then publish it.
type Client struct {
	m    *Manager
	http *http.Client
}

// NewClient wraps an authenticated manager.
func NewClient(m *Manager) (*Client, error) {
	if m.accessToken == "" || m.accountID == "" {
		return nil, fmt.Errorf("instagram: %w", domain.ErrAuthRequired)
	}
	return &Client{m: m, http: &http.Client{Timeout: 60 * time.Second}}, nil
}

type containerID struct {
	ID string `json:"id"`
}

// Publish posts the first image URL with the status text as caption.
// Instagram requires media; a row without images is an input error.
func (c *Client) Publish(ctx context.Context, post domain.Post) error {
	if len(post.ImageURLs) == 0 {
		return fmt.Errorf("%w: instagram posts require an image URL", domain.ErrInvalidInput)
	}
	_, err := c.Post(ctx, post.Render(), post.ImageURLs[0])
	return err
}

// Post publishes an image by URL with a caption and returns the media
// id.
func (c *Client) Post(ctx context.Context, caption, imageURL string) (string, error) {
	return c.publishContainer(ctx, url.Values{
		"image_url": {imageURL},
		"caption":   {caption},
	})
}

// Video publishes a reel by URL with a caption.
func (c *Client) Video(ctx context.Context, caption, videoURL string) (string, error) {
	if videoURL == "" {
		return "", fmt.Errorf("%w: empty video URL", domain.ErrInvalidInput)
	}
	return c.publishContainer(ctx, url.Values{
		"media_type": {"REELS"},
		"video_url":  {videoURL},
		"caption":    {caption},
	})
}

func (c *Client) publishContainer(ctx context.Context, params url.Values) (string, error) {
	params.Set("access_token", c.m.accessToken)

	var container containerID
	createURL := fmt.Sprintf("%s/%s/media?%s",
		facebook.GraphURL, url.PathEscape(c.m.accountID), params.Encode())
	if err := platforms.PostJSON(ctx, c.http, createURL, "", nil, &container); err != nil {
		return "", fmt.Errorf("instagram container create: %w", err)
	}

	q := url.Values{
		"creation_id":  {container.ID},
		"access_token": {c.m.accessToken},
	}
	var media containerID
	publishURL := fmt.Sprintf("%s/%s/media_publish?%s",
		facebook.GraphURL, url.PathEscape(c.m.accountID), q.Encode())
	if err := platforms.PostJSON(ctx, c.http, publishURL, "", nil, &media); err != nil {
		return "", fmt.Errorf("instagram container publish: %w", err)
	}

	logger.Info("instagram: published %s", media.ID)
	return media.ID, nil
}
