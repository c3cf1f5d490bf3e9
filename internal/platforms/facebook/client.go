package facebook

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

// Client is a thin wrapper over the page feed endpoints. Construct it
// only after a successful Authenticate; it posts with the page token
// when one was resolved, else the user token.
type Client struct {
	m        *Manager
	http     *http.Client
	objectID string
}

// NewClient wraps an authenticated manager.
func NewClient(m *Manager) (*Client, error) {
	if m.accessToken == "" {
		return nil, fmt.Errorf("facebook: %w", domain.ErrAuthRequired)
	}
	objectID := m.objectID()
	if objectID == "" {
		objectID = "me"
	}
	return &Client{
		m:        m,
		http:     &http.Client{Timeout: 30 * time.Second},
		objectID: objectID,
	}, nil
}

func (c *Client) token() string {
	if c.m.pageToken != "" {
		return c.m.pageToken
	}
	return c.m.accessToken
}

type graphID struct {
	ID string `json:"id"`
}

// Publish posts to the page feed: a plain status, a link post, or a
// single-photo post when the row carries an image URL. Multi-image
// rows post the first image; the Graph batch-photo flow is not wired.
func (c *Client) Publish(ctx context.Context, post domain.Post) error {
	if len(post.ImageURLs) > 0 {
		_, err := c.Photo(ctx, post.StatusText, post.ImageURLs[0])
		return err
	}
	_, err := c.Post(ctx, post.StatusText, post.StatusLink)
	return err
}

// Post creates a feed post and returns its id.
func (c *Client) Post(ctx context.Context, message, link string) (string, error) {
	if message == "" && link == "" {
		return "", fmt.Errorf("%w: empty post", domain.ErrInvalidInput)
	}
	q := url.Values{"access_token": {c.token()}}
	if message != "" {
		q.Set("message", message)
	}
	if link != "" {
		q.Set("link", link)
	}

	var resp graphID
	u := fmt.Sprintf("%s/%s/feed?%s", GraphURL, url.PathEscape(c.objectID), q.Encode())
	if err := platforms.PostJSON(ctx, c.http, u, "", nil, &resp); err != nil {
		return "", fmt.Errorf("facebook post: %w", err)
	}
	logger.Info("facebook: posted %s", resp.ID)
	return resp.ID, nil
}

// Photo posts an image by URL with an optional caption.
func (c *Client) Photo(ctx context.Context, caption, imageURL string) (string, error) {
	q := url.Values{
		"access_token": {c.token()},
		"url":          {imageURL},
	}
	if caption != "" {
		q.Set("caption", caption)
	}

	var resp graphID
	u := fmt.Sprintf("%s/%s/photos?%s", GraphURL, url.PathEscape(c.objectID), q.Encode())
	if err := platforms.PostJSON(ctx, c.http, u, "", nil, &resp); err != nil {
		return "", fmt.Errorf("facebook photo: %w", err)
	}
	return resp.ID, nil
}

// Video posts a video by URL. The Graph API ingests the file
// server-side from file_url.
func (c *Client) Video(ctx context.Context, description, videoURL string) (string, error) {
	if videoURL == "" {
		return "", fmt.Errorf("%w: empty video URL", domain.ErrInvalidInput)
	}
	q := url.Values{
		"access_token": {c.token()},
		"file_url":     {videoURL},
	}
	if description != "" {
		q.Set("description", description)
	}

	var resp graphID
	u := fmt.Sprintf("%s/%s/videos?%s", GraphURL, url.PathEscape(c.objectID), q.Encode())
	if err := platforms.PostJSON(ctx, c.http, u, "", nil, &resp); err != nil {
		return "", fmt.Errorf("facebook video: %w", err)
	}
	return resp.ID, nil
}

// Delete removes a post by id.
func (c *Client) Delete(ctx context.Context, postID string) error {
	u := fmt.Sprintf("%s/%s?access_token=%s", GraphURL, url.PathEscape(postID), url.QueryEscape(c.token()))
	if err := platforms.DoJSON(ctx, c.http, "DELETE", u, "", nil, nil); err != nil {
		return fmt.Errorf("facebook delete %s: %w", postID, err)
	}
	return nil
}
