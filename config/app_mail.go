package config

import (
	"github.com/akeren/clawsec-waitlist/internal/log"
	"github.com/akeren/clawsec-waitlist/pkg/mailer"
	"github.com/akeren/clawsec-waitlist/pkg/utils"
)

func NewMailerConfig() *mailer.Config {
	return &mailer.Config{
		Domain:    utils.GetEnvTrimmed("MAILGUN_DOMAIN"),
		APIKey:    sanitizeEnv(GetValueFromEnvironmentVariable("MAILGUN_API_KEY", "")),
		APIBase:   utils.GetEnvTrimmed("MAILGUN_API_BASE"),
		FromEmail: utils.GetEnvTrimmed("WAITLIST_FROM_EMAIL"),
		FromName:  utils.GetEnvTrimmedOrDefault("WAITLIST_FROM_NAME", "Clawsec"),
	}
}

// NewMailerOrNil returns nil when Mailgun is not configured.
func NewMailerOrNil(logger *log.Logger, cfg *mailer.Config) mailer.Sender {
	sender := mailer.NewMailgunSender(cfg)
	if sender == nil {
		logger.Info("Mailgun not configured; welcome emails disabled")
		return nil
	}

	logger.Info("Mailgun configured", "domain", cfg.Domain)
	return sender
}
