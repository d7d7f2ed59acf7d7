package smtp

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"github.com/go-otp-auth/internal/config"
	"github.com/jordan-wright/email"
)

// Mailer delivers one-time codes by email.
type Mailer interface {
	SendOTP(to, code string) error
}

type mailer struct {
	host      string
	port      string
	from      string
	username  string
	password  string
	otpExpiry time.Duration
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		from:      cfg.SMTPFrom,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		otpExpiry: cfg.OTPExpiry,
	}
}

func (m *mailer) SendOTP(to, code string) error {
	var body bytes.Buffer
	err := otpTemplate.Execute(&body, otpTemplateData{
		Code:          code,
		ExpiryMinutes: int(m.otpExpiry.Minutes()),
		Year:          time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("render otp email: %w", err)
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{to}
	e.Subject = "Your One-Time Password for Verification"
	e.HTML = body.Bytes()

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	return e.Send(fmt.Sprintf("%s:%s", m.host, m.port), auth)
}

type otpTemplateData struct {
	Code          string
	ExpiryMinutes int
	Year          int
}

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <title>OTP Verification</title>
    <style>
      body { font-family: Arial, sans-serif; background-color: #f4f4f9; margin: 0; padding: 20px; }
      .container { max-width: 600px; margin: 0 auto; background-color: #fff; border-radius: 8px; padding: 30px; }
      h2 { color: #333; text-align: center; }
      p { color: #555; font-size: 16px; line-height: 1.5; }
      .otp { display: block; background-color: #4CAF50; color: white; font-size: 24px; font-weight: bold; padding: 10px 20px; border-radius: 6px; text-align: center; margin: 20px 0; }
      .footer { text-align: center; font-size: 12px; color: #777; }
    </style>
  </head>
  <body>
    <div class="container">
      <h2>Your One-Time Password (OTP) for Verification</h2>
      <p>We received a request to verify your identity. Please use the one-time password (OTP) below to complete the verification process:</p>
      <span class="otp">{{.Code}}</span>
      <p>Note: This OTP is valid for {{.ExpiryMinutes}} minutes from the time of request.</p>
      <p>If you did not request this verification, please ignore this email.</p>
      <div class="footer">
        <p>&copy; {{.Year}} ShoreTic. All rights reserved.</p>
      </div>
    </div>
  </body>
</html>`))
