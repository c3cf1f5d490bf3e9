package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/araddon/dateparse"

	"github.com/agoraslabs/agoras-cli/internal/core/domain"
	"github.com/agoraslabs/agoras-cli/internal/core/ports/driven"
	"github.com/agoraslabs/agoras-cli/internal/logger"
)

// ScheduleService processes the spreadsheet-backed queue of scheduled
// posts. The sheet is read in full, due rows are flipped to
// "published" in memory, and the whole sheet is rewritten in one
// write, so a transport failure never leaves a partial update.
type ScheduleService struct {
	sheet driven.Spreadsheet
	// now is the clock, swappable in tests.
	now func() time.Time
}

// NewScheduleService creates a schedule service over a spreadsheet.
func NewScheduleService(sheet driven.Spreadsheet) *ScheduleService {
	return &ScheduleService{sheet: sheet, now: time.Now}
}

// SetClock overrides the clock. Used by tests.
func (s *ScheduleService) SetClock(now func() time.Time) {
	s.now = now
}

// ProcessScheduledPosts evaluates every row of the sheet and returns
// the posts due right now, in row order. Due rows have their state
// rewritten to "published" before the sheet is replaced, so a second
// immediate invocation is a no-op for them. maxCount <= 0 means no
// limit.
//
// Row policy, preserved deliberately:
//   - rows with fewer than nine columns pass through untouched;
//   - rows already "published" pass through untouched;
//   - rows dated before today are skipped forever, even if they were
//     never published;
//   - rows dated today publish only during their exact hour;
//   - a row whose date cannot be parsed is skipped, not fatal.
func (s *ScheduleService) ProcessScheduledPosts(ctx context.Context, maxCount int) ([]domain.Post, error) {
	rows, err := s.sheet.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading schedule sheet: %w", err)
	}

	now := s.now()
	today := truncateToDay(now)
	currentHour := fmt.Sprintf("%02d", now.Hour())

	var due []domain.Post
	for i, row := range rows {
		if len(row) < domain.ScheduleColumns {
			continue
		}
		if maxCount > 0 && len(due) >= maxCount {
			continue
		}
		if row[domain.ColState] == domain.StatePublished {
			continue
		}

		rowDate, err := parseRowDate(row[domain.ColDate])
		if err != nil {
			logger.Warn("schedule: row %d has unparseable date %q, skipping", i+1, row[domain.ColDate])
			continue
		}

		switch {
		case rowDate.Before(today):
			// Stale row: never published, never will be.
			continue
		case rowDate.After(today):
			continue
		case row[domain.ColHour] != currentHour:
			continue
		}

		due = append(due, domain.PostFromRow(row))
		row[domain.ColState] = domain.StatePublished
	}

	if err := s.sheet.ReplaceAll(ctx, rows); err != nil {
		return nil, fmt.Errorf("rewriting schedule sheet: %w", err)
	}

	logger.Info("schedule: %d post(s) due out of %d row(s)", len(due), len(rows))
	return due, nil
}

// AddPost appends a draft row scheduling a post for the given date and
// hour. Hour must be a zero-padded 24-hour string ("00".."23").
func (s *ScheduleService) AddPost(ctx context.Context, post domain.Post, date, hour string) error {
	if _, err := parseRowDate(date); err != nil {
		return fmt.Errorf("%w: unparseable date %q", domain.ErrInvalidInput, date)
	}
	// Atoi alone admits signed strings like "+9", so require a leading digit.
	if n, err := strconv.Atoi(hour); err != nil || len(hour) != 2 || hour[0] < '0' || hour[0] > '9' || n > 23 {
		return fmt.Errorf("%w: hour must be a zero-padded 24h string, got %q", domain.ErrInvalidInput, hour)
	}

	row := make([]string, domain.ScheduleColumns)
	row[domain.ColStatusText] = post.StatusText
	row[domain.ColStatusLink] = post.StatusLink
	for i, url := range post.ImageURLs {
		if i >= 4 {
			break
		}
		row[domain.ColImage1+i] = url
	}
	row[domain.ColDate] = date
	row[domain.ColHour] = hour
	row[domain.ColState] = domain.StateDraft

	if err := s.sheet.Append(ctx, [][]string{row}); err != nil {
		return fmt.Errorf("appending schedule row: %w", err)
	}
	return nil
}

// parseRowDate parses a human-entered date with a locale-tolerant
// parser and drops the time-of-day component.
func parseRowDate(value string) (time.Time, error) {
	t, err := dateparse.ParseLocal(value)
	if err != nil {
		return time.Time{}, err
	}
	return truncateToDay(t), nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
