package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Parser with optional seconds field, standard descriptors, and @every.
var cronParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ParseSchedule parses a cron expression and returns a cron.Schedule.
// Supports standard 5- or 6-field expressions, descriptors like @hourly,
// and @every intervals.
func ParseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("schedule expression cannot be empty")
	}

	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid cron expression %q: %w", expr, err)
	}

	return schedule, nil
}

// ValidateSchedule validates a cron expression without scheduling it.
func ValidateSchedule(expr string) error {
	_, err := ParseSchedule(expr)
	return err
}

// NextRun calculates the next activation of a cron expression from the
// given time.
func NextRun(expr string, from time.Time) (time.Time, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.Next(from), nil
}

// Due reports whether the cron expression fires within the minute
// containing now. The sweep timer ticks on a fixed period and uses this
// to decide which ticks actually run; an unparsable expression is never
// due.
func Due(expr string, now time.Time) (bool, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return false, err
	}
	minute := now.Truncate(time.Minute)
	next := schedule.Next(minute.Add(-time.Second))
	return !next.After(minute.Add(time.Minute - time.Second)), nil
}
