package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms/instagram"
)

var instagramObjectID string

var instagramCmd = &cobra.Command{
	Use:   "instagram",
	Short: "Publish to an Instagram business account",
	RunE:  platformRunE(domain.PlatformInstagram),
}

var instagramAuthorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Run the OAuth flow and store a long-lived token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuthorize(cmd.Context(), instagramManager())
	},
}

var instagramDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDisconnect(cmd.Context(), instagramManager())
	},
}

var instagramPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Publish an image by URL with a caption",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := instagramClient(cmd.Context())
		if err != nil {
			return err
		}
		post := flagPost()
		if len(post.ImageURLs) == 0 {
			return fmt.Errorf("%w: instagram posts require --image", domain.ErrInvalidInput)
		}
		id, err := c.Post(cmd.Context(), post.Render(), post.ImageURLs[0])
		if err != nil {
			return err
		}
		fmt.Printf("Published %s\n", id)
		return nil
	},
}

var instagramVideoCmd = &cobra.Command{
	Use:   "video",
	Short: "Publish a reel by URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := instagramClient(cmd.Context())
		if err != nil {
			return err
		}
		id, err := c.Video(cmd.Context(), flagStatusText, flagVideoURL)
		if err != nil {
			return err
		}
		fmt.Printf("Published %s\n", id)
		return nil
	},
}

var instagramScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Drain due scheduled posts to Instagram, or add a row with --date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduleDate != "" {
			return runSchedule(cmd.Context(), nil, flagPost())
		}
		c, err := instagramClient(cmd.Context())
		if err != nil {
			return err
		}
		return runSchedule(cmd.Context(), c, domain.Post{})
	},
}

func instagramManager() *instagram.Manager {
	return instagram.New(instagram.Config{
		ObjectID:     instagramObjectID,
		CallbackPort: callbackPort(),
		AuthTimeout:  authTimeout(),
	}, tokenStore)
}

func instagramClient(ctx context.Context) (*instagram.Client, error) {
	m := instagramManager()
	if err := authenticated(ctx, m); err != nil {
		return nil, err
	}
	return instagram.NewClient(m)
}

func init() {
	instagramCmd.PersistentFlags().StringVar(&instagramObjectID, "object-id", "", "business account id (defaults to INSTAGRAM_OBJECT_ID)")

	addPostFlags(instagramPostCmd)
	addPostFlags(instagramScheduleCmd)
	instagramVideoCmd.Flags().StringVar(&flagStatusText, "text", "", "caption")
	instagramVideoCmd.Flags().StringVar(&flagVideoURL, "video", "", "video URL")
	addScheduleFlags(instagramScheduleCmd)

	instagramCmd.AddCommand(instagramAuthorizeCmd, instagramDisconnectCmd,
		instagramPostCmd, instagramVideoCmd, instagramScheduleCmd)
	rootCmd.AddCommand(instagramCmd)
}
