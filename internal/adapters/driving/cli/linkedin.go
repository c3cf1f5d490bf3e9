package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms/linkedin"
)

var linkedinCmd = &cobra.Command{
	Use:   "linkedin",
	Short: "Share member updates on LinkedIn",
	RunE:  platformRunE(domain.PlatformLinkedIn),
}

var linkedinAuthorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Run the OAuth flow and store a refresh token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuthorize(cmd.Context(), linkedinManager())
	},
}

var linkedinDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDisconnect(cmd.Context(), linkedinManager())
	},
}

var linkedinPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Share a member update",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := linkedinClient(cmd.Context())
		if err != nil {
			return err
		}
		post := flagPost()
		id, err := c.Post(cmd.Context(), post.StatusText, post.StatusLink)
		if err != nil {
			return err
		}
		fmt.Printf("Posted %s\n", id)
		return nil
	},
}

var linkedinShareCmd = &cobra.Command{
	Use:   "share",
	Short: "Share a link with commentary",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := linkedinClient(cmd.Context())
		if err != nil {
			return err
		}
		if flagStatusLink == "" {
			return fmt.Errorf("%w: share requires --link", domain.ErrInvalidInput)
		}
		id, err := c.Post(cmd.Context(), flagStatusText, flagStatusLink)
		if err != nil {
			return err
		}
		fmt.Printf("Shared %s\n", id)
		return nil
	},
}

var linkedinDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a post by URN",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := linkedinClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.Delete(cmd.Context(), flagPostID)
	},
}

var linkedinScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Drain due scheduled posts to LinkedIn, or add a row with --date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduleDate != "" {
			return runSchedule(cmd.Context(), nil, flagPost())
		}
		c, err := linkedinClient(cmd.Context())
		if err != nil {
			return err
		}
		return runSchedule(cmd.Context(), c, domain.Post{})
	},
}

func linkedinManager() *linkedin.Manager {
	return linkedin.New(linkedin.Config{
		CallbackPort: callbackPort(),
		AuthTimeout:  authTimeout(),
	}, tokenStore)
}

func linkedinClient(ctx context.Context) (*linkedin.Client, error) {
	m := linkedinManager()
	if err := authenticated(ctx, m); err != nil {
		return nil, err
	}
	return linkedin.NewClient(m)
}

func init() {
	addPostFlags(linkedinPostCmd)
	addPostFlags(linkedinShareCmd)
	addPostFlags(linkedinScheduleCmd)
	linkedinDeleteCmd.Flags().StringVar(&flagPostID, "id", "", "ugcPost URN")
	_ = linkedinDeleteCmd.MarkFlagRequired("id")
	addScheduleFlags(linkedinScheduleCmd)

	linkedinCmd.AddCommand(linkedinAuthorizeCmd, linkedinDisconnectCmd,
		linkedinPostCmd, linkedinShareCmd, linkedinDeleteCmd, linkedinScheduleCmd)
	rootCmd.AddCommand(linkedinCmd)
}
