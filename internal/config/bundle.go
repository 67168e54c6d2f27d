package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/shineum/civicmail/internal/email"
	"github.com/shineum/civicmail/internal/media"
	"github.com/shineum/civicmail/internal/rotation"
	"github.com/shineum/civicmail/internal/schedule"
)

// ErrNoRecipients is returned when no valid To address remains after validation.
var ErrNoRecipients = errors.New("no valid recipients configured")

// Bundle is the validated configuration handed to every component at
// construction. It is built once and must not be modified afterwards.
type Bundle struct {
	To  []string
	Cc  []string
	Bcc []string

	Location LocationConfig
	Issue    IssueConfig
	Legal    LegalConfig

	MinDelay time.Duration
	MaxDelay time.Duration

	MediaDir    string
	MediaPolicy media.Policy

	Schedule     rotation.Schedule
	SendEveryDay bool
	Daily        schedule.Daily
	Zone         *time.Location

	FromName        string
	ReferencePrefix string
	NoticePrefix    string
	DateFormat      string
	TimeFormat      string
}

// Bundle validates the configuration and returns an independent, validated
// copy. Malformed and duplicate recipient addresses are dropped; an empty To
// set is fatal.
func (c *Config) Bundle(logger *slog.Logger) (*Bundle, error) {
	b := &Bundle{
		Location: c.Location,
		Issue: IssueConfig{
			PrimaryIssue:       c.Issue.PrimaryIssue,
			SpecificProblems:   slices.Clone(c.Issue.SpecificProblems),
			AffectedPopulation: c.Issue.AffectedPopulation,
			Duration:           c.Issue.Duration,
		},
		Legal: LegalConfig{
			ConstitutionalArticles: slices.Clone(c.Legal.ConstitutionalArticles),
			RelevantLaws:           slices.Clone(c.Legal.RelevantLaws),
			EscalationPath:         slices.Clone(c.Legal.EscalationPath),
		},
		MediaDir:        c.Media.Dir,
		SendEveryDay:    c.Rotation.SendEveryDay,
		FromName:        c.Message.FromName,
		ReferencePrefix: c.Message.ReferencePrefix,
		NoticePrefix:    c.Message.NoticePrefix,
		DateFormat:      c.Message.DateFormat,
		TimeFormat:      c.Message.TimeFormat,
	}

	seen := make(map[string]struct{})
	b.To = email.FilterValid(logger, "to", c.Recipients.To, seen)
	b.Cc = email.FilterValid(logger, "cc", c.Recipients.Cc, seen)
	b.Bcc = email.FilterValid(logger, "bcc", c.Recipients.Bcc, seen)
	if len(b.To) == 0 {
		return nil, ErrNoRecipients
	}

	if c.AntiSpam.MinDelay < 0 || c.AntiSpam.MaxDelay < c.AntiSpam.MinDelay {
		return nil, fmt.Errorf("invalid anti-spam delay bounds [%d, %d]", c.AntiSpam.MinDelay, c.AntiSpam.MaxDelay)
	}
	b.MinDelay = time.Duration(c.AntiSpam.MinDelay) * time.Second
	b.MaxDelay = time.Duration(c.AntiSpam.MaxDelay) * time.Second

	policy, err := c.mediaPolicy()
	if err != nil {
		return nil, err
	}
	b.MediaPolicy = policy

	sched, err := c.rotationSchedule()
	if err != nil {
		return nil, err
	}
	b.Schedule = sched

	zone, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule timezone: %w", err)
	}
	b.Zone = zone

	daily, err := schedule.ParseDaily(c.Schedule.Time, zone)
	if err != nil {
		return nil, err
	}
	b.Daily = daily

	if b.ReferencePrefix == "" || b.NoticePrefix == "" {
		return nil, errors.New("reference and notice prefixes are required")
	}
	if b.DateFormat == "" || b.TimeFormat == "" {
		return nil, errors.New("date and time formats are required")
	}

	logger.Debug("configuration validated",
		"to", len(b.To),
		"cc", len(b.Cc),
		"bcc", len(b.Bcc),
		"timezone", zone.String(),
	)

	return b, nil
}

func (c *Config) mediaPolicy() (media.Policy, error) {
	if c.Media.MaxFileMB <= 0 || c.Media.MaxTotalMB <= 0 {
		return media.Policy{}, fmt.Errorf("attachment limits must be positive, got file=%v total=%v", c.Media.MaxFileMB, c.Media.MaxTotalMB)
	}
	exts := make([]string, 0, len(c.Media.Extensions))
	for _, ext := range c.Media.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if !slices.Contains(exts, ext) {
			exts = append(exts, ext)
		}
	}
	return media.Policy{
		Extensions: exts,
		MaxFileMB:  c.Media.MaxFileMB,
		MaxTotalMB: c.Media.MaxTotalMB,
	}, nil
}

func (c *Config) rotationSchedule() (rotation.Schedule, error) {
	days := make(map[int][]int, len(c.Rotation.Days))
	for _, rule := range c.Rotation.Days {
		wd, err := rotation.ParseWeekday(rule.Weekday)
		if err != nil {
			return rotation.Schedule{}, fmt.Errorf("invalid rotation: %w", err)
		}
		if _, dup := days[wd]; dup {
			return rotation.Schedule{}, fmt.Errorf("invalid rotation: weekday %s listed twice", rule.Weekday)
		}
		days[wd] = rule.Templates
	}
	sched, err := rotation.NewSchedule(c.Rotation.DefaultTemplate, days)
	if err != nil {
		return rotation.Schedule{}, fmt.Errorf("invalid rotation: %w", err)
	}
	return sched, nil
}
