package emailsvc

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"
	gomail "github.com/wneessen/go-mail"

	"github.com/trezcool/peerfeedback/core"
)

const smtpTimeout = 30 * time.Second

// SMTPOptions addresses a mail submission endpoint.
// Without a username the session is unauthenticated.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
}

type smtpService struct {
	opts SMTPOptions
	from mail.Address
}

var _ core.EmailService = (*smtpService)(nil)

func NewSMTPService(opts SMTPOptions, from mail.Address) core.EmailService {
	return &smtpService{opts: opts, from: from}
}

func (svc *smtpService) client() (*gomail.Client, error) {
	clientOpts := []gomail.Option{
		gomail.WithPort(svc.opts.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic), // STARTTLS when offered
		gomail.WithTimeout(smtpTimeout),
	}
	if svc.opts.Username != "" {
		clientOpts = append(clientOpts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(svc.opts.Username),
			gomail.WithPassword(svc.opts.Password),
		)
	}
	return gomail.NewClient(svc.opts.Host, clientOpts...)
}

func (svc *smtpService) prepare(msg core.EmailMessage) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.FromFormat(svc.from.Name, svc.from.Address); err != nil {
		return nil, errors.Wrap(err, "setting sender")
	}
	if err := m.To(addresses(msg.To)...); err != nil {
		return nil, errors.Wrap(err, "setting recipients")
	}
	if len(msg.Cc) > 0 {
		if err := m.Cc(addresses(msg.Cc)...); err != nil {
			return nil, errors.Wrap(err, "setting cc")
		}
	}
	if len(msg.Bcc) > 0 {
		if err := m.Bcc(addresses(msg.Bcc)...); err != nil {
			return nil, errors.Wrap(err, "setting bcc")
		}
	}
	m.Subject(msg.Subject)
	m.SetMessageID()
	m.SetDate()

	switch {
	case msg.HTMLContent != "" && msg.TextContent != "":
		m.SetBodyString(gomail.TypeTextPlain, msg.TextContent)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTMLContent)
	case msg.HTMLContent != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTMLContent)
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.TextContent)
	}
	return m, nil
}

func (svc *smtpService) SendMessages(ctx context.Context, messages ...*core.EmailMessage) error {
	toSend := make([]*gomail.Msg, 0, len(messages))
	for _, msg := range messages {
		if !msg.HasRecipients() || !msg.HasContent() {
			continue
		}
		m, err := svc.prepare(*msg)
		if err != nil {
			return err
		}
		toSend = append(toSend, m)
	}
	if len(toSend) == 0 {
		return nil
	}

	c, err := svc.client()
	if err != nil {
		return errors.Wrap(err, "smtp client")
	}
	if err := c.DialAndSendWithContext(ctx, toSend...); err != nil {
		return errors.Wrapf(err, "smtp %s:%d", svc.opts.Host, svc.opts.Port)
	}
	return nil
}

func addresses(addrs []mail.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.Address)
	}
	return out
}
