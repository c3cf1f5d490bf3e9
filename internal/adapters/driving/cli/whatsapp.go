package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/platforms/whatsapp"
)

var (
	whatsappTo       string
	whatsappTemplate string
	whatsappLanguage string
)

var whatsappCmd = &cobra.Command{
	Use:   "whatsapp",
	Short: "Send WhatsApp messages through the Cloud API",
	RunE:  platformRunE(domain.PlatformWhatsApp),
}

var whatsappAuthorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Validate and store the Cloud API access token",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runAuthorize(cmd.Context(), whatsappManager())
	},
}

var whatsappDisconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the stored credential",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runDisconnect(cmd.Context(), whatsappManager())
	},
}

var whatsappPostCmd = &cobra.Command{
	Use:   "post",
	Short: "Send a text message",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := whatsappClient(cmd.Context())
		if err != nil {
			return err
		}
		id, err := c.Post(cmd.Context(), whatsappTo, flagPost().Render())
		if err != nil {
			return err
		}
		fmt.Printf("Sent message %s\n", id)
		return nil
	},
}

var whatsappTemplateCmd = &cobra.Command{
	Use:   "template",
	Short: "Send a pre-approved template message",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := whatsappClient(cmd.Context())
		if err != nil {
			return err
		}
		id, err := c.Template(cmd.Context(), whatsappTo, whatsappTemplate, whatsappLanguage)
		if err != nil {
			return err
		}
		fmt.Printf("Sent template message %s\n", id)
		return nil
	},
}

var whatsappScheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Drain due scheduled posts to a WhatsApp recipient, or add a row with --date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if scheduleDate != "" {
			return runSchedule(cmd.Context(), nil, flagPost())
		}
		c, err := whatsappClient(cmd.Context())
		if err != nil {
			return err
		}
		sender, err := c.SenderTo(whatsappTo)
		if err != nil {
			return err
		}
		return runSchedule(cmd.Context(), sender, domain.Post{})
	},
}

func whatsappManager() *whatsapp.Manager {
	return whatsapp.New(whatsapp.Config{}, tokenStore)
}

func whatsappClient(ctx context.Context) (*whatsapp.Client, error) {
	m := whatsappManager()
	if err := authenticated(ctx, m); err != nil {
		return nil, err
	}
	return whatsapp.NewClient(m)
}

func init() {
	whatsappCmd.PersistentFlags().StringVar(&whatsappTo, "to", "", "recipient phone number")

	addPostFlags(whatsappPostCmd)
	addPostFlags(whatsappScheduleCmd)
	addScheduleFlags(whatsappScheduleCmd)
	whatsappTemplateCmd.Flags().StringVar(&whatsappTemplate, "template", "", "template name")
	whatsappTemplateCmd.Flags().StringVar(&whatsappLanguage, "language", "en_US", "template language code")
	_ = whatsappTemplateCmd.MarkFlagRequired("template")

	whatsappCmd.AddCommand(whatsappAuthorizeCmd, whatsappDisconnectCmd,
		whatsappPostCmd, whatsappTemplateCmd, whatsappScheduleCmd)
	rootCmd.AddCommand(whatsappCmd)
}
