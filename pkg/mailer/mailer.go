package mailer

import (
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/MohaDjm/the-tip-top-sub000/config"
)

// Mailer sends the campaign's transactional emails over SMTP.
// All sends happen after the triggering transaction has committed;
// a failed send is logged and never propagated to the caller.
type Mailer struct {
	dialer  *gomail.Dialer
	from    string
	baseURL string
	logger  *zap.Logger
}

// NewMailer builds a Mailer from the SMTP configuration.
func NewMailer(cfg *config.MailConfig, baseURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		dialer:  gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password),
		from:    cfg.From,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending mail to %s: %w", to, err)
	}
	return nil
}

// SendVerificationEmail sends the account activation link.
func (m *Mailer) SendVerificationEmail(to, name, token string) error {
	link := fmt.Sprintf("%s/api/v1/auth/verify-email/%s", m.baseURL, token)
	body := fmt.Sprintf(
		`<p>Bonjour %s,</p>
<p>Bienvenue chez Thé Tip Top ! Cliquez sur le lien ci-dessous pour activer votre compte :</p>
<p><a href="%s">Activer mon compte</a></p>
<p>Ce lien est valable 24 heures.</p>`,
		name, link,
	)
	return m.send(to, "Thé Tip Top — Vérifiez votre adresse email", body)
}

// SendPasswordResetEmail sends the password reset link.
func (m *Mailer) SendPasswordResetEmail(to, name, token string) error {
	link := fmt.Sprintf("%s/reset-password/%s", m.baseURL, token)
	body := fmt.Sprintf(
		`<p>Bonjour %s,</p>
<p>Vous avez demandé la réinitialisation de votre mot de passe :</p>
<p><a href="%s">Réinitialiser mon mot de passe</a></p>
<p>Ce lien est valable 1 heure. Si vous n'êtes pas à l'origine de cette demande, ignorez cet email.</p>`,
		name, link,
	)
	return m.send(to, "Thé Tip Top — Réinitialisation du mot de passe", body)
}

// SendParticipationEmail confirms a winning participation.
func (m *Mailer) SendParticipationEmail(to, name, gainName string) error {
	body := fmt.Sprintf(
		`<p>Bonjour %s,</p>
<p>Félicitations ! Votre participation a été enregistrée et vous avez gagné : <strong>%s</strong>.</p>
<p>Présentez-vous en boutique avec votre compte pour récupérer votre lot.</p>`,
		name, gainName,
	)
	return m.send(to, "Thé Tip Top — Votre lot vous attend !", body)
}
