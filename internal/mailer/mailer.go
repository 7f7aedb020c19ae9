package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"pcshop/internal/logger"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

//go:embed templates/*.html
var templateFS embed.FS

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type Mailer struct {
	from   string
	sender Sender
	tmpl   *template.Template
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

// New returns an SMTP mailer, or one that only logs when no host is set.
func New(cfg SMTPConfig) *Mailer {
	var sender Sender = logSender{}
	if cfg.Host != "" {
		sender = gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	}
	return NewWithSender(cfg.From, sender)
}

func NewWithSender(from string, sender Sender) *Mailer {
	return &Mailer{
		from:   from,
		sender: sender,
		tmpl:   template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}
}

type VerificationMail struct {
	Name      string
	Code      string
	ExpiresIn string
}

type OrderLine struct {
	Name     string
	Quantity int
	Price    string
}

type OrderMail struct {
	CustomerName  string
	Code          string
	Items         []OrderLine
	Total         string
	PaymentMethod string
	QRURL         string
}

type RedemptionMail struct {
	Name            string
	ProductName     string
	PointCost       int64
	RemainingPoints int64
}

type RefundMail struct {
	Name      string
	OrderCode string
	Status    string
	AdminNote string
}

func (m *Mailer) SendVerificationCode(ctx context.Context, to, name, code string) error {
	return m.send(ctx, to, "Your PC Shop verification code", "verification.html", VerificationMail{
		Name:      name,
		Code:      code,
		ExpiresIn: "15 minutes",
	})
}

func (m *Mailer) SendOrderConfirmation(ctx context.Context, to string, data OrderMail) error {
	return m.send(ctx, to, "Order "+data.Code+" received", "order.html", data)
}

func (m *Mailer) SendRedemption(ctx context.Context, to string, data RedemptionMail) error {
	return m.send(ctx, to, "Points redeemed", "redemption.html", data)
}

func (m *Mailer) SendRefundDecision(ctx context.Context, to string, data RefundMail) error {
	return m.send(ctx, to, "Refund request "+data.Status, "refund.html", data)
}

func (m *Mailer) send(ctx context.Context, to, subject, name string, data any) error {
	var body bytes.Buffer
	if err := m.tmpl.ExecuteTemplate(&body, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body.String())

	if err := m.sender.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}

	logger.FromCtx(ctx).Debug("mail sent",
		zap.String("to", to),
		zap.String("template", name),
	)
	return nil
}

type logSender struct{}

func (logSender) DialAndSend(msgs ...*gomail.Message) error {
	for _, msg := range msgs {
		logger.L().Info("smtp disabled, mail not delivered",
			zap.Strings("to", msg.GetHeader("To")),
			zap.Strings("subject", msg.GetHeader("Subject")),
		)
	}
	return nil
}
