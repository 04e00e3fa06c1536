package report

import (
	"fmt"
	"net/smtp"

	"github.com/jordan-wright/email"

	"plusauto-intel/config"
	"plusauto-intel/models"
	"plusauto-intel/utils"
)

// Mailer delivers rendered reports over SMTP.
type Mailer struct {
	cfg    *config.Config
	logger *utils.Logger
}

// NewMailer creates a Mailer with the given configuration and logger.
func NewMailer(cfg *config.Config, logger *utils.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// Deliver sends the report to the configured recipients. With no recipients
// configured it logs and returns nil; delivery is optional per run.
func (m *Mailer) Deliver(document []byte, session *models.IntelligenceSession) error {
	if len(m.cfg.Recipients) == 0 {
		m.logger.Warn("[mail] No recipients configured - skipping delivery")
		return nil
	}

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("Plus-Auto Intelligence <%s>", m.cfg.SenderEmail)
	mail.To = m.cfg.Recipients
	mail.Subject = fmt.Sprintf("%s - %s", m.cfg.SubjectPrefix, session.Timestamp.Format("2006-01-02"))
	mail.HTML = document

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPServer, m.cfg.SMTPPort)
	auth := smtp.PlainAuth("", m.cfg.SenderEmail, m.cfg.SenderPassword, m.cfg.SMTPServer)

	if err := mail.Send(addr, auth); err != nil {
		return fmt.Errorf("report: send via %s: %w", addr, err)
	}

	m.logger.Info("[mail] Report sent to %d recipients", len(m.cfg.Recipients))
	return nil
}
