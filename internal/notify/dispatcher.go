package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"dalada-backend/internal/config"
	"dalada-backend/internal/model"
	"dalada-backend/internal/util"
)

// Dispatcher delivers a passcode over the requested channel.
type Dispatcher interface {
	SendCode(ctx context.Context, channel model.Channel, identifier, code string) error
}

// EmailDispatcher sends codes over SMTP. PHONE-channel codes are logged and
// skipped until an SMS gateway is wired in.
type EmailDispatcher struct {
	cfg    *config.SMTPConfig
	logger *zap.Logger
}

func NewEmailDispatcher(cfg *config.SMTPConfig, logger *zap.Logger) *EmailDispatcher {
	return &EmailDispatcher{cfg: cfg, logger: logger}
}

func (d *EmailDispatcher) SendCode(ctx context.Context, channel model.Channel, identifier, code string) error {
	if channel == model.ChannelPhone {
		// TODO: wire an SMS gateway for PHONE channel delivery.
		d.logger.Info("SMS dispatch skipped, no gateway configured",
			util.String("identifier", identifier))
		return nil
	}

	if d.cfg.Host == "" || d.cfg.From == "" {
		d.logger.Warn("SMTP config missing, skip code delivery",
			util.String("identifier", identifier))
		return nil
	}
	if strings.TrimSpace(identifier) == "" {
		return fmt.Errorf("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.cfg.From)
	m.SetHeader("To", identifier)
	m.SetHeader("Subject", "Dalada verification code")

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <div style="max-width: 520px; margin: 0 auto; padding: 16px;">
    <h2>Dalada</h2>
    <p>Your verification code:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>The code is valid for 5 minutes.</p>
  </div>
</body>
</html>`, code)
	m.SetBody("text/html", body)

	dialer := gomail.NewDialer(d.cfg.Host, d.cfg.Port, d.cfg.User, d.cfg.Pass)
	if err := dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	d.logger.Info("Verification email sent", util.String("to", identifier))
	return nil
}
