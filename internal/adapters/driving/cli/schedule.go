package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	"github.com/agoraslabs/agoras-cli/internal/adapters/driven/sheets"
	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/core/services"
	"github.com/agoraslabs/agoras-cli/internal/logger"
	"github.com/agoraslabs/agoras-cli/internal/platforms"
)

// EnvSheetsToken supplies the Google Sheets OAuth access token used by
// the schedule commands.
const EnvSheetsToken = "GOOGLE_SHEETS_ACCESS_TOKEN"

// Shared schedule flags, registered on each platform's schedule
// subcommand.
var (
	scheduleSheetID  string
	scheduleMax      int
	scheduleDaemon   bool
	scheduleInterval time.Duration
	scheduleDate     string
	scheduleHour     string
)

// newSpreadsheet builds the Google Sheets adapter from the --sheet-id
// flag (falling back to config) and the sheets token env var.
func newSpreadsheet(ctx context.Context) (driven.Spreadsheet, error) {
	sheetID := scheduleSheetID
	if sheetID == "" && configStore != nil {
		sheetID = configStore.GetString("schedule.sheet_id")
	}
	if sheetID == "" {
		return nil, fmt.Errorf("%w: no spreadsheet id, pass --sheet-id or set schedule.sheet_id", domain.ErrInvalidInput)
	}

	token := platforms.Resolve("", EnvSheetsToken, "")
	if token == "" {
		return nil, fmt.Errorf("%w: %s is not set", domain.ErrInvalidInput, EnvSheetsToken)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return sheets.NewWorksheet(ctx, ts, sheetID)
}

// runScheduleOnce drains the currently due rows and publishes each
// through the platform publisher.
func runScheduleOnce(ctx context.Context, publisher driven.Publisher) error {
	sheet, err := newSpreadsheet(ctx)
	if err != nil {
		return err
	}

	svc := services.NewScheduleService(sheet)
	posts, err := svc.ProcessScheduledPosts(ctx, scheduleMax)
	if err != nil {
		return err
	}

	for _, post := range posts {
		if err := publisher.Publish(ctx, post); err != nil {
			logger.Warn("schedule: publish failed: %v", err)
		}
	}
	return nil
}

// runScheduleDaemon runs the ticker scheduler until interrupted.
func runScheduleDaemon(ctx context.Context, publisher driven.Publisher) error {
	sheet, err := newSpreadsheet(ctx)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := services.NewScheduler(services.NewScheduleService(sheet), publisher, scheduleInterval, scheduleMax)
	logger.Info("schedule: daemon started, interval %s", sched.Interval())
	if err := sched.Start(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// runScheduleAdd appends a draft row instead of draining the queue.
// Used when --date is given on a schedule command.
func runScheduleAdd(ctx context.Context, post domain.Post) error {
	sheet, err := newSpreadsheet(ctx)
	if err != nil {
		return err
	}
	svc := services.NewScheduleService(sheet)
	if err := svc.AddPost(ctx, post, scheduleDate, scheduleHour); err != nil {
		return err
	}
	fmt.Printf("Scheduled for %s at %s:00\n", scheduleDate, scheduleHour)
	return nil
}

// runSchedule dispatches a platform's schedule subcommand: add a row
// when --date is set, daemon mode when --daemon is set, else one
// drain pass.
func runSchedule(ctx context.Context, publisher driven.Publisher, post domain.Post) error {
	if scheduleDate != "" {
		return runScheduleAdd(ctx, post)
	}
	if scheduleDaemon {
		return runScheduleDaemon(ctx, publisher)
	}
	return runScheduleOnce(ctx, publisher)
}

// addScheduleFlags registers the shared schedule flags on a platform's
// schedule subcommand.
func addScheduleFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&scheduleSheetID, "sheet-id", "", "Google Sheets spreadsheet id")
	cmd.Flags().IntVar(&scheduleMax, "max", 0, "maximum posts to publish per run (0 = no limit)")
	cmd.Flags().BoolVar(&scheduleDaemon, "daemon", false, "keep running, draining the sheet on an interval")
	cmd.Flags().DurationVar(&scheduleInterval, "interval", time.Hour, "daemon drain interval")
	cmd.Flags().StringVar(&scheduleDate, "date", "", "schedule a new row for this date instead of draining")
	cmd.Flags().StringVar(&scheduleHour, "hour", "", "zero-padded hour for the new row (with --date)")
}
