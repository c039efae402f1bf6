package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/gomail.v2"

	"inklessnews/internal/config"
	"inklessnews/internal/domain"
	"inklessnews/internal/ports"
)

// Dispatcher emails rendered newspapers over SMTP. With no SMTP host
// or username configured it runs in development mode: the would-be
// send is logged and the run still succeeds.
type Dispatcher struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
}

var _ ports.Mailer = (*Dispatcher)(nil)

// NewDispatcher wires SMTP settings.
func NewDispatcher(cfg config.SMTPConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger}
}

// Send delivers the document as a single attachment named
// inkless_news_<date>.<ext> with the format's content type. A genuine
// provider failure comes back as *domain.DeliveryError.
func (d *Dispatcher) Send(ctx context.Context, delivery ports.Delivery) error {
	date := delivery.Date.Format("2006-01-02")
	fileName := fmt.Sprintf("inkless_news_%s.%s", date, delivery.Format.Extension())
	subject := fmt.Sprintf("Inkless News - %s", date)

	if !d.configured() {
		d.info("smtp not configured, development mode send",
			"to", delivery.To,
			"subject", subject,
			"attachment", fileName,
			"bytes", len(delivery.Document),
		)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.cfg.From)
	m.SetHeader("To", delivery.To)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", fmt.Sprintf(
		"Your personalized newspaper for %s. Open the attached %s file on your Kindle device or app.",
		date, string(delivery.Format),
	))
	m.Attach(fileName,
		gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(delivery.Document)
			return err
		}),
		gomail.SetHeader(map[string][]string{
			"Content-Type": {delivery.Format.ContentType()},
		}),
	)

	dialer := gomail.NewDialer(d.cfg.Host, d.cfg.Port, d.cfg.Username, d.cfg.Password)

	// gomail has no context support; bound the send with the caller's
	// deadline instead of blocking the run indefinitely.
	done := make(chan error, 1)
	go func() {
		done <- dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return &domain.DeliveryError{To: delivery.To, Err: err}
		}
	case <-ctx.Done():
		return &domain.DeliveryError{To: delivery.To, Err: ctx.Err()}
	}

	d.info("email sent", "to", delivery.To, "attachment", fileName)
	return nil
}

func (d *Dispatcher) configured() bool {
	return d.cfg.Host != "" && d.cfg.Username != ""
}

func (d *Dispatcher) info(msg string, args ...any) {
	if d.logger != nil {
		d.logger.Info(msg, args...)
	}
}
