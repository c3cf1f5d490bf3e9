package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms/discord"
)

var (
	discordServerName  string
	discordChannelName string
)

var discordCmd = &cobra.Command{
	Use:   "discord",
	Short: "Post messages to a Discord channel",
	RunE:  platformRunE(domain.PlatformDiscord),
}

var discordAuthorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Validate and store the bot token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuthorize(cmd.Context(), discordManager())
	},
}

var discordDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDisconnect(cmd.Context(), discordManager())
	},
}

var discordPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Send a message to the configured channel",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := discordClient(cmd.Context())
		if err != nil {
			return err
		}
		id, err := c.Post(cmd.Context(), flagPost().Render())
		if err != nil {
			return err
		}
		fmt.Printf("Posted message %s\n", id)
		return nil
	},
}

var discordDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete a message by id",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := discordClient(cmd.Context())
		if err != nil {
			return err
		}
		return c.Delete(cmd.Context(), flagPostID)
	},
}

var discordScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Drain due scheduled posts to Discord, or add a row with --date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduleDate != "" {
			return runSchedule(cmd.Context(), nil, flagPost())
		}
		c, err := discordClient(cmd.Context())
		if err != nil {
			return err
		}
		return runSchedule(cmd.Context(), c, domain.Post{})
	},
}

func discordManager() *discord.Manager {
	return discord.New(discord.Config{
		ServerName:  discordServerName,
		ChannelName: discordChannelName,
	}, tokenStore)
}

func discordClient(ctx context.Context) (*discord.Client, error) {
	m := discordManager()
	if err := authenticated(ctx, m); err != nil {
		return nil, err
	}
	return discord.NewClient(m)
}

func init() {
	discordCmd.PersistentFlags().StringVar(&discordServerName, "server", "", "server name (defaults to DISCORD_SERVER_NAME)")
	discordCmd.PersistentFlags().StringVar(&discordChannelName, "channel", "", "channel name (defaults to DISCORD_CHANNEL_NAME)")

	addPostFlags(discordPostCmd)
	addPostFlags(discordScheduleCmd)
	discordDeleteCmd.Flags().StringVar(&flagPostID, "id", "", "message id")
	_ = discordDeleteCmd.MarkFlagRequired("id")
	addScheduleFlags(discordScheduleCmd)

	discordCmd.AddCommand(discordAuthorizeCmd, discordDisconnectCmd,
		discordPostCmd, discordDeleteCmd, discordScheduleCmd)
	rootCmd.AddCommand(discordCmd)
}
