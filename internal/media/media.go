// Package media fetches post attachments over HTTP. Downloads for a
// multi-image post run concurrently with per-slot failure isolation:
// one bad URL drops that slot, the rest of the post survives.
package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/agoraslabs/agoras-cli/internal/logger"
)

// MaxDownloadSize caps a single attachment at 25 MB, above every
// platform's image limit.
const MaxDownloadSize = 25 << 20

const downloadTimeout = 60 * time.Second

// Attachment is a downloaded media item.
type Attachment struct {
	URL         string
	ContentType string
	Data        []byte
}

// Downloader fetches attachments. The zero value is not usable; use
// NewDownloader.
type Downloader struct {
	client *http.Client
}

// NewDownloader creates a Downloader with a bounded-timeout client.
func NewDownloader() *Downloader {
	return &Downloader{client: &http.Client{Timeout: downloadTimeout}}
}

// Fetch downloads one URL and sniffs its content type from the leading
// bytes rather than trusting the server header.
func (d *Downloader) Fetch(ctx context.Context, url string) (*Attachment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	if len(data) > MaxDownloadSize {
		return nil, fmt.Errorf("download %s: exceeds %d bytes", url, MaxDownloadSize)
	}

	return &Attachment{
		URL:         url,
		ContentType: http.DetectContentType(data),
		Data:        data,
	}, nil
}

// FetchAll downloads the given URLs concurrently. The result is
// positional: slot i holds the attachment for urls[i] or nil when that
// download failed. Failures are logged, not returned; an all-failed
// batch yields a slice of nils.
func (d *Downloader) FetchAll(ctx context.Context, urls []string) []*Attachment {
	results := make([]*Attachment, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, u := range urls {
		i, u := i, u
		g.Go(func() error {
			att, err := d.Fetch(ctx, u)
			if err != nil {
				logger.Warn("media: skipping attachment: %v", err)
				return nil
			}
			results[i] = att
			return nil
		})
	}
	g.Wait() //nolint:errcheck // goroutines never return errors

	return results
}
