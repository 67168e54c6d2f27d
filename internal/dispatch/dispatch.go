// Package dispatch runs one complaint dispatch: choose the account and
// template for the day, render the message, gather attachments, hand the
// message to a transport and pause before returning.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/config"
	"github.com/shineum/civicmail/internal/email"
	"github.com/shineum/civicmail/internal/media"
	"github.com/shineum/civicmail/internal/reference"
	"github.com/shineum/civicmail/internal/render"
	"github.com/shineum/civicmail/internal/rotation"
	"github.com/shineum/civicmail/internal/template"
	"github.com/shineum/civicmail/internal/transport"
)

// ErrUnknownTemplate is returned when the rotation schedule refers to a
// template the store does not hold.
var ErrUnknownTemplate = errors.New("schedule refers to an unknown template")

// attachmentType is the content type used for every attachment.
const attachmentType = "application/octet-stream"

// Reporter receives every terminal outcome.
type Reporter interface {
	Report(ctx context.Context, out Outcome) error
}

// Options holds the collaborators of a Dispatcher.
type Options struct {
	Bundle    *config.Bundle
	Accounts  []account.Account
	Templates *template.Store
	Transport transport.Transport

	// Reporter is optional.
	Reporter Reporter
	Logger   *slog.Logger

	// Rand seeds reference numbers and the post-send delay. Nil uses the
	// global source.
	Rand *rand.Rand

	// Sleep replaces the context-aware pause, for tests.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Dispatcher runs dispatches. It holds no per-run state.
type Dispatcher struct {
	bundle    *config.Bundle
	accounts  []account.Account
	templates *template.Store
	transport transport.Transport
	reporter  Reporter
	logger    *slog.Logger
	rng       *rand.Rand
	sleep     func(ctx context.Context, d time.Duration) error
}

// New validates opts and returns a Dispatcher.
func New(opts Options) (*Dispatcher, error) {
	if opts.Bundle == nil {
		return nil, errors.New("dispatch: configuration bundle is required")
	}
	if len(opts.Accounts) == 0 {
		return nil, account.ErrNoAccounts
	}
	if opts.Templates == nil {
		return nil, errors.New("dispatch: template store is required")
	}
	if opts.Transport == nil {
		return nil, errors.New("dispatch: transport is required")
	}
	for _, id := range opts.Bundle.Schedule.TemplateIDs() {
		if _, ok := opts.Templates.Get(id); !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, id)
		}
	}

	d := &Dispatcher{
		bundle:    opts.Bundle,
		accounts:  opts.Accounts,
		templates: opts.Templates,
		transport: opts.Transport,
		reporter:  opts.Reporter,
		logger:    opts.Logger,
		rng:       opts.Rand,
		sleep:     opts.Sleep,
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.sleep == nil {
		d.sleep = sleepWithContext
	}
	return d, nil
}

// Plan is the rotation result for one day.
type Plan struct {
	Date     time.Time
	Account  account.Account
	Decision rotation.Decision
}

// Plan returns the account and template decision for the local date of now.
func (d *Dispatcher) Plan(now time.Time) Plan {
	now = d.local(now)
	return Plan{
		Date:     now,
		Account:  rotation.SelectAccount(d.accounts, rotation.DayOrdinal(now)),
		Decision: d.bundle.Schedule.Decide(now),
	}
}

// Build renders the message for plan and gathers its attachments.
func (d *Dispatcher) Build(plan Plan, logger *slog.Logger) *email.Email {
	b := d.bundle
	now := d.local(plan.Date)

	ref := reference.Generate(b.ReferencePrefix, now, d.rng)
	notice := reference.Notice(b.NoticePrefix, now, d.rng)

	tpl, _ := d.templates.Get(plan.Decision.TemplateID)
	r := render.Render(tpl, render.Variables(b, ref, notice, now), logger)

	msg := &email.Email{
		From:        plan.Account.Address,
		FromName:    b.FromName,
		To:          b.To,
		Cc:          b.Cc,
		Bcc:         b.Bcc,
		Subject:     r.Subject,
		TextBody:    r.TextBody,
		HtmlBody:    r.HTMLBody,
		ContentType: string(r.ContentType),
		Reference:   ref,
	}

	if b.MediaDir == "" {
		logger.Debug("no media directory configured")
		return msg
	}
	admitted := media.Discover(b.MediaDir, b.MediaPolicy, logger)
	msg.Attachments = loadAttachments(admitted.Accepted(), logger)
	return msg
}

// Run performs one dispatch for the local date of now and returns its
// outcome. It never returns an error: failures are recorded in the outcome.
func (d *Dispatcher) Run(ctx context.Context, now time.Time) Outcome {
	plan := d.Plan(now)
	out := Outcome{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		Account:    plan.Account.Name,
		Sender:     plan.Account.Address,
		TemplateID: plan.Decision.TemplateID,
		SendDay:    plan.Decision.SendDay,
		Transport:  d.transport.Name(),
	}
	logger := d.logger.With(
		"run_id", out.RunID,
		"account", plan.Account.Name,
		"template", plan.Decision.TemplateID,
	)

	if !plan.Decision.SendDay && !d.bundle.SendEveryDay {
		out.State = StateSkipped
		out.FinishedAt = time.Now()
		logger.Info("not a send day, skipping", "weekday", plan.Date.Weekday().String())
		d.report(ctx, out, logger)
		return out
	}

	out.State = StateBuilding
	msg := d.Build(plan, logger)
	out.Reference = msg.Reference
	out.Recipients = len(msg.Recipients())
	for _, att := range msg.Attachments {
		out.Attachments = append(out.Attachments, att.Filename)
	}
	logger = logger.With("reference", msg.Reference)

	out.State = StateConnecting
	logger.Info("sending message",
		"transport", d.transport.Name(),
		"recipients", out.Recipients,
		"attachments", len(out.Attachments),
	)
	if err := d.transport.Send(ctx, plan.Account, msg); err != nil {
		out.State = StateFailed
		out.Reason = transport.ReasonOf(err)
		out.Err = err
		logger.Error("dispatch failed", "reason", out.Reason, "error", err)
	} else {
		out.State = StateSent
		logger.Info("message sent")
	}
	out.FinishedAt = time.Now()

	d.report(ctx, out, logger)
	out.Delay = d.pause(ctx, logger)
	return out
}

func (d *Dispatcher) report(ctx context.Context, out Outcome, logger *slog.Logger) {
	if d.reporter == nil {
		return
	}
	if err := d.reporter.Report(ctx, out); err != nil {
		logger.Warn("failed to report outcome", "error", err)
	}
}

// pause sleeps for a random duration within the configured bounds.
func (d *Dispatcher) pause(ctx context.Context, logger *slog.Logger) time.Duration {
	delay := randomDelay(d.rng, d.bundle.MinDelay, d.bundle.MaxDelay)
	if delay <= 0 {
		return 0
	}
	logger.Info("pausing before next operation", "delay", delay.String())
	if err := d.sleep(ctx, delay); err != nil {
		logger.Debug("pause interrupted", "error", err)
	}
	return delay
}

func (d *Dispatcher) local(t time.Time) time.Time {
	if d.bundle.Zone != nil {
		return t.In(d.bundle.Zone)
	}
	return t
}

// loadAttachments reads the admitted files. Files that fail to read are
// logged and left out.
func loadAttachments(files []media.Candidate, logger *slog.Logger) []email.Attachment {
	var out []email.Attachment
	for _, f := range files {
		content, err := os.ReadFile(f.Path)
		if err != nil {
			logger.Warn("failed to read attachment, skipping", "file", f.Name, "error", err)
			continue
		}
		out = append(out, email.Attachment{
			Filename:    f.Name,
			ContentType: attachmentType,
			Content:     content,
		})
	}
	return out
}

// randomDelay returns a whole number of seconds drawn uniformly from [lo, hi].
func randomDelay(rng *rand.Rand, lo, hi time.Duration) time.Duration {
	loS, hiS := int(lo/time.Second), int(hi/time.Second)
	if hiS <= loS {
		return time.Duration(loS) * time.Second
	}
	n := hiS - loS + 1
	var r int
	if rng == nil {
		r = rand.IntN(n)
	} else {
		r = rng.IntN(n)
	}
	return time.Duration(loS+r) * time.Second
}

// sleepWithContext waits for the specified duration or until the context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
