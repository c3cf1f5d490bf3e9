package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms/facebook"
)

var facebookObjectID string

var facebookCmd = &cobra.Command{
	Use:   "facebook",
	Short: "Post to a Facebook page",
	RunE:  platformRunE(domain.PlatformFacebook),
}

var facebookAuthorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Run the OAuth flow and store a long-lived token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuthorize(cmd.Context(), facebookManager())
	},
}

var facebookDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDisconnect(cmd.Context(), facebookManager())
	},
}

var facebookPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Post to the page feed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := facebookClient(cmd.Context())
		if err != nil {
			return err
		}
		post := flagPost()
		if len(post.ImageURLs) > 0 {
			id, err := c.Photo(cmd.Context(), post.StatusText, post.ImageURLs[0])
			if err != nil {
				return err
			}
			fmt.Printf("Posted %s\n", id)
			return nil
		}
		id, err := c.Post(cmd.Context(), post.StatusText, post.StatusLink)
		if err != nil {
			return err
		}
		fmt.Printf("Posted %s\n", id)
		return nil
	},
}

var facebookVideoCmd = &cobra.Command{
	Use:   "video",
	Short: "Post a video by URL",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := facebookClient(cmd.Context())
		if err != nil {
			return err
		}
		id, err := c.Video(cmd.Context(), flagStatusText, flagVideoURL)
		if err != nil {
			return err
		}
		fmt.Printf("Posted %s\n", id)
		return nil
	},
}

var facebookDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a post by id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := facebookClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.Delete(cmd.Context(), flagPostID)
	},
}

var facebookScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Drain due scheduled posts to Facebook, or add a row with --date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduleDate != "" {
			return runSchedule(cmd.Context(), nil, flagPost())
		}
		c, err := facebookClient(cmd.Context())
		if err != nil {
			return err
		}
		return runSchedule(cmd.Context(), c, domain.Post{})
	},
}

func facebookManager() *facebook.Manager {
	return facebook.New(facebook.Config{
		ObjectID:     facebookObjectID,
		CallbackPort: callbackPort(),
		AuthTimeout:  authTimeout(),
	}, tokenStore)
}

func facebookClient(ctx context.Context) (*facebook.Client, error) {
	m := facebookManager()
	if err := authenticated(ctx, m); err != nil {
		return nil, err
	}
	return facebook.NewClient(m)
}

func init() {
	facebookCmd.PersistentFlags().StringVar(&facebookObjectID, "object-id", "", "page or Graph object id (defaults to FACEBOOK_OBJECT_ID)")

	addPostFlags(facebookPostCmd)
	addPostFlags(facebookScheduleCmd)
	facebookVideoCmd.Flags().StringVar(&flagStatusText, "text", "", "video description")
	facebookVideoCmd.Flags().StringVar(&flagVideoURL, "video", "", "video URL")
	facebookDeleteCmd.Flags().StringVar(&flagPostID, "id", "", "post id")
	_ = facebookDeleteCmd.MarkFlagRequired("id")
	addScheduleFlags(facebookScheduleCmd)

	facebookCmd.AddCommand(facebookAuthorizeCmd, facebookDisconnectCmd,
		facebookPostCmd, facebookVideoCmd, facebookDeleteCmd, facebookScheduleCmd)
	rootCmd.AddCommand(facebookCmd)
}
