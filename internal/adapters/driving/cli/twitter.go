package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms/twitter"
)

var twitterCmd = &cobra.Command{
	Use:   "twitter",
	Short: "Post, like, share and delete tweets",
	RunE:  platformRunE(domain.PlatformTwitter),
}

var twitterAuthorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Run the three-legged OAuth flow and store the token pair",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuthorize(cmd.Context(), twitterManager())
	},
}

var twitterDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDisconnect(cmd.Context(), twitterManager())
	},
}

var twitterPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Post a tweet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		id, err := c.Post(cmd.Context(), flagPost().Render())
		if err != nil {
			return err
		}
		fmt.Printf("Posted tweet %s\n", id)
		return nil
	},
}

var twitterLikeCmd = &cobra.Command{
	Use:   "like",
	Short: "Like a tweet by id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.Like(cmd.Context(), flagPostID)
	},
}

var twitterDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a tweet by id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.Delete(cmd.Context(), flagPostID)
	},
}

var twitterShareCmd = &cobra.Command{
	Use:   "share",
	Short: "Retweet a tweet by id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.Share(cmd.Context(), flagPostID)
	},
}

var twitterVideoCmd = &cobra.Command{
	Use:   "video",
	Short: "Post a tweet linking a video",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		id, err := c.Video(cmd.Context(), flagStatusText, flagVideoURL)
		if err != nil {
			return err
		}
		fmt.Printf("Posted tweet %s\n", id)
		return nil
	},
}

var twitterLastFromFeedCmd = &cobra.Command{
	Use:   "last-from-feed",
	Short: "Retweet the most recent tweet from your feed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.ShareLastFromFeed(cmd.Context())
	},
}

var twitterRandomFromFeedCmd = &cobra.Command{
	Use:   "random-from-feed",
	Short: "Retweet a random recent tweet from your feed",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.ShareRandomFromFeed(cmd.Context())
	},
}

var twitterScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Drain due scheduled posts to Twitter, or add a row with --date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduleDate != "" {
			return runSchedule(cmd.Context(), nil, flagPost())
		}
		c, err := twitterClient(cmd.Context())
		if err != nil {
			return err
		}
		return runSchedule(cmd.Context(), c, domain.Post{})
	},
}

func twitterManager() *twitter.Manager {
	return twitter.New(twitter.Config{
		CallbackPort: callbackPort(),
		AuthTimeout:  authTimeout(),
	}, tokenStore)
}

func twitterClient(ctx context.Context) (*twitter.Client, error) {
	m := twitterManager()
	if err := authenticated(ctx, m); err != nil {
		return nil, err
	}
	return twitter.NewClient(m)
}

func init() {
	addPostFlags(twitterPostCmd)
	addPostFlags(twitterScheduleCmd)
	twitterVideoCmd.Flags().StringVar(&flagStatusText, "text", "", "status text")
	twitterVideoCmd.Flags().StringVar(&flagVideoURL, "video", "", "video URL")
	for _, c := range []*cobra.Command{twitterLikeCmd, twitterDeleteCmd, twitterShareCmd} {
		c.Flags().StringVar(&flagPostID, "id", "", "tweet id")
		_ = c.MarkFlagRequired("id")
	}
	addScheduleFlags(twitterScheduleCmd)

	twitterCmd.AddCommand(twitterAuthorizeCmd, twitterDisconnectCmd, twitterPostCmd,
		twitterLikeCmd, twitterDeleteCmd, twitterShareCmd, twitterVideoCmd,
		twitterLastFromFeedCmd, twitterRandomFromFeedCmd, twitterScheduleCmd)
	rootCmd.AddCommand(twitterCmd)
}
