// Package emailsvc provides the mail transports feedback is sent through.
package emailsvc

import (
	"github.com/pkg/errors"

	"github.com/trezcool/peerfeedback/core"
)

// mail drivers
const (
	DriverSMTP     = "smtp"
	DriverSendgrid = "sendgrid"
	DriverConsole  = "console"
)

// NewService returns the transport selected by conf.Mail.Driver.
func NewService(conf *core.Config, logger core.Logger) (core.EmailService, error) {
	from := conf.DefaultFromEmail()
	switch conf.Mail.Driver {
	case "", DriverSMTP:
		if conf.Mail.Host == "" {
			return nil, errors.New("mail.host is required for the smtp driver")
		}
		return NewSMTPService(SMTPOptions{
			Host:     conf.Mail.Host,
			Port:     conf.Mail.Port,
			Username: conf.Mail.Username,
			Password: conf.Mail.Password,
		}, from), nil
	case DriverSendgrid:
		if conf.SendgridApiKey == "" {
			return nil, errors.New("sendgridApiKey is required for the sendgrid driver")
		}
		return NewSendgridService(conf.SendgridApiKey, from), nil
	case DriverConsole:
		return NewConsoleService(from, logger), nil
	default:
		return nil, errors.Errorf("unknown mail driver %q", conf.Mail.Driver)
	}
}
