package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// Shared post-content flags, registered on each platform's posting
// subcommands.
var (
	flagStatusText string
	flagStatusLink string
	flagImageURLs  []string
	flagPostID     string
	flagVideoURL   string
)

func addPostFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagStatusText, "text", "", "status text")
	cmd.Flags().StringVar(&flagStatusLink, "link", "", "link to attach")
	cmd.Flags().StringSliceVar(&flagImageURLs, "image", nil, "image URL (repeatable, up to 4)")
}

func flagPost() domain.Post {
	return domain.Post{
		StatusText: flagStatusText,
		StatusLink: flagStatusLink,
		ImageURLs:  flagImageURLs,
	}
}

// platformRunE is the RunE for a bare platform command: an unknown
// action argument reports a capability error rather than generic
// cobra usage noise.
func platformRunE(p domain.Platform) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return p.CheckCapability(domain.Action(args[0]))
		}
		return cmd.Help()
	}
}

// authenticated runs Authenticate and turns the quiet "not yet
// authorized" result into an actionable error.
func authenticated(ctx context.Context, m platforms.Manager) error {
	ok, err := m.Authenticate(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: run `agoras %s authorize` first", domain.ErrAuthRequired, m.Platform())
	}
	return nil
}

// runAuthorize drives a manager's authorization flow and reports the
// stored credential preview.
func runAuthorize(ctx context.Context, m platforms.Manager) error {
	token, err := m.Authorize(ctx)
	if err != nil {
		return fmt.Errorf("%s authorization failed: %w", m.Platform(), err)
	}
	fmt.Printf("%s authorized, credential %s stored\n", m.Platform(), domain.Preview(token))
	return nil
}

// runDisconnect clears a manager's stored credential.
func runDisconnect(ctx context.Context, m platforms.Manager) error {
	if err := m.Disconnect(ctx); err != nil {
		return err
	}
	fmt.Printf("%s credential removed\n", m.Platform())
	return nil
}
