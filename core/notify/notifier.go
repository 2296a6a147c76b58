// Package notify mails each student the feedback they received.
package notify

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/peerfeedback/core"
	"github.com/trezcool/peerfeedback/core/feedback"
)

// TemplateName is the email template rendered for every recipient.
const TemplateName = "feedback"

type (
	Options struct {
		Mailer        core.EmailService
		Templates     *core.Templates
		Logger        core.Logger
		SubjectPrefix string // e.g. "CHEM"
		TestRun       bool   // send everything to TestAddress
		TestAddress   string
	}

	// TemplateData is what the feedback template renders.
	TemplateData struct {
		TutorialDate string
		Course       string
		Evaluations  []feedback.Entry
	}

	// Report lists who got an email and where it was actually sent.
	Report struct {
		Recipients []string
		SentTo     []string
		TestRun    bool
	}

	Notifier struct {
		opts Options
	}
)

func New(opts Options) (*Notifier, error) {
	err := vala.BeginValidation().Validate(
		func() (bool, string) { return opts.Mailer != nil, "Mailer is required" },
		func() (bool, string) { return opts.Templates != nil, "Templates is required" },
		func() (bool, string) {
			return !opts.TestRun || core.CleanString(opts.TestAddress) != "", "TestAddress is required for a test run"
		},
	).Check()
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = core.NopLogger()
	}
	if !opts.Templates.Has(TemplateName) {
		return nil, errors.Errorf("email template %q not found", TemplateName)
	}
	return &Notifier{opts: opts}, nil
}

// Subject is the subject line of the feedback emails for course.
func (n *Notifier) Subject(course string) string {
	return fmt.Sprintf("%s %s Tutorial Peer Assessment Feedback", n.opts.SubjectPrefix, course)
}

// Notify sends one email per recipient with feedback, in class list order.
// The first render or transport error stops the remaining sends.
func (n *Notifier) Notify(ctx context.Context, bundles *feedback.Bundles, dateLabel, course string) (Report, error) {
	report := Report{TestRun: n.opts.TestRun}
	for _, recipient := range bundles.NonEmpty() {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		to := recipient
		if n.opts.TestRun {
			to = core.CleanString(n.opts.TestAddress)
		}
		addr, err := mail.ParseAddress(to)
		if err != nil {
			return report, errors.Wrapf(err, "invalid recipient address %q", to)
		}

		msg := &core.EmailMessage{
			To:           []mail.Address{*addr},
			Subject:      n.Subject(course),
			TemplateName: TemplateName,
			TemplateData: TemplateData{
				TutorialDate: dateLabel,
				Course:       course,
				Evaluations:  bundles.Get(recipient),
			},
		}
		if err := msg.Render(n.opts.Templates); err != nil {
			return report, errors.Wrapf(err, "rendering feedback for %s", recipient)
		}
		if err := n.opts.Mailer.SendMessages(ctx, msg); err != nil {
			return report, errors.Wrapf(err, "sending feedback for %s", recipient)
		}

		report.Recipients = append(report.Recipients, recipient)
		report.SentTo = append(report.SentTo, addr.Address)
		n.opts.Logger.Info(fmt.Sprintf("Email sent to: %s. Testrun: %t", recipient, n.opts.TestRun))
	}
	return report, nil
}
