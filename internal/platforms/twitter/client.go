package twitter

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// APIURL is the v2 REST base. Overridable in tests.
var APIURL = "https://api.twitter.com/2"

// Client is a thin wrapper over the tweet endpoints, signing with the
// manager's OAuth1a client. Construct it only after a successful
// Authenticate.
type Client struct {
	m *Manager
}

// NewClient wraps an authenticated manager.
func NewClient(m *Manager) (*Client, error) {
	if m.client == nil {
		return nil, fmt.Errorf("twitter: %w", domain.ErrAuthRequired)
	}
	return &Client{m: m}, nil
}

type tweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// Publish posts the status text and link as a tweet. Image URLs ride
// along as trailing links; native media upload is not wired.
func (c *Client) Publish(ctx context.Context, post domain.Post) error {
	_, err := c.Post(ctx, post.Render())
	return err
}

// Post creates a tweet and returns its id.
func (c *Client) Post(ctx context.Context, text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("%w: empty tweet text", domain.ErrInvalidInput)
	}
	var resp tweetResponse
	body := map[string]string{"text": text}
	if err := platforms.PostJSON(ctx, c.m.client, APIURL+"/tweets", "", body, &resp); err != nil {
		return "", fmt.Errorf("twitter post: %w", err)
	}
	logger.Info("twitter: posted tweet %s", resp.Data.ID)
	return resp.Data.ID, nil
}

// Delete removes a tweet by id.
func (c *Client) Delete(ctx context.Context, tweetID string) error {
	u := fmt.Sprintf("%s/tweets/%s", APIURL, url.PathEscape(tweetID))
	if err := platforms.DoJSON(ctx, c.m.client, "DELETE", u, "", nil, nil); err != nil {
		return fmt.Errorf("twitter delete %s: %w", tweetID, err)
	}
	return nil
}

// Like marks a tweet as liked by the authenticated account.
func (c *Client) Like(ctx context.Context, tweetID string) error {
	u := fmt.Sprintf("%s/users/%s/likes", APIURL, url.PathEscape(c.m.accountID))
	body := map[string]string{"tweet_id": tweetID}
	if err := platforms.PostJSON(ctx, c.m.client, u, "", body, nil); err != nil {
		return fmt.Errorf("twitter like %s: %w", tweetID, err)
	}
	return nil
}

// Share retweets a tweet.
func (c *Client) Share(ctx context.Context, tweetID string) error {
	u := fmt.Sprintf("%s/users/%s/retweets", APIURL, url.PathEscape(c.m.accountID))
	body := map[string]string{"tweet_id": tweetID}
	if err := platforms.PostJSON(ctx, c.m.client, u, "", body, nil); err != nil {
		return fmt.Errorf("twitter share %s: %w", tweetID, err)
	}
	return nil
}

// Video posts a tweet whose text links the video URL. The v2 API has
// no URL-ingest for media, so the link form is used.
func (c *Client) Video(ctx context.Context, text, videoURL string) (string, error) {
	if videoURL == "" {
		return "", fmt.Errorf("%w: empty video URL", domain.ErrInvalidInput)
	}
	return c.Post(ctx, text+"\n"+videoURL)
}

// feed returns the authenticated account's recent tweet ids, newest
// first.
func (c *Client) feed(ctx context.Context) ([]string, error) {
	u := fmt.Sprintf("%s/users/%s/tweets?max_results=20", APIURL, url.PathEscape(c.m.accountID))
	var resp struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := platforms.GetJSON(ctx, c.m.client, u, "", &resp); err != nil {
		return nil, fmt.Errorf("twitter feed: %w", err)
	}
	ids := make([]string, 0, len(resp.Data))
	for _, t := range resp.Data {
		ids = append(ids, t.ID)
	}
	return ids, nil
}

// ShareLastFromFeed retweets the account's most recent tweet.
func (c *Client) ShareLastFromFeed(ctx context.Context) error {
	ids, err := c.feed(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: feed is empty", domain.ErrNotFound)
	}
	return c.Share(ctx, ids[0])
}

// ShareRandomFromFeed retweets a random tweet from the account's
// recent feed.
func (c *Client) ShareRandomFromFeed(ctx context.Context) error {
	ids, err := c.feed(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return fmt.Errorf("%w: feed is empty", domain.ErrNotFound)
	}
	return c.Share(ctx, ids[rand.Intn(len(ids))])
}
