package email

import (
	"fmt"
	"net/smtp"

	"github.com/cduffaut/crm-accounts/internal/config"
)

// Service gère l'envoi d'emails
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUsername string
	smtpPassword string
	fromEmail    string
}

// NewService crée un nouveau service d'email
func NewService(cfg config.SMTPConfig) *Service {
	return &Service{
		smtpHost:     cfg.Host,
		smtpPort:     cfg.Port,
		smtpUsername: cfg.Username,
		smtpPassword: cfg.Password,
		fromEmail:    cfg.From,
	}
}

// SendPasswordResetCode envoie le code de réinitialisation à 6 chiffres
func (s *Service) SendPasswordResetCode(to, firstName, code string) error {
	subject := "Réinitialisation de votre mot de passe"
	body := fmt.Sprintf(`
        <html>
        <body>
            <h1>Réinitialisation de mot de passe</h1>
            <p>Bonjour %s,</p>
            <p>Vous avez demandé une réinitialisation de votre mot de passe. Voici votre code de vérification :</p>
            <h2>%s</h2>
            <p>Ce code est valable pendant 5 minutes.</p>
            <p>Si vous n'êtes pas à l'origine de cette demande, veuillez ignorer cet email.</p>
        </body>
        </html>
    `, firstName, code)

	return s.sendEmail(to, subject, body)
}

// sendEmail envoie un email via SMTP.
// Sans hôte SMTP configuré, l'email est affiché dans la console (mode dev).
func (s *Service) sendEmail(to, subject, body string) error {
	if s.smtpHost == "" {
		fmt.Println("========== EMAIL ==========")
		fmt.Println("À:", to)
		fmt.Println("Sujet:", subject)
		fmt.Println("Corps:", body)
		fmt.Println("==========================")
		return nil
	}

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	auth := smtp.PlainAuth("", s.smtpUsername, s.smtpPassword, s.smtpHost)

	headers := map[string]string{
		"From":         s.fromEmail,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}

	message := ""
	for k, v := range headers {
		message += fmt.Sprintf("%s: %s\r\n", k, v)
	}
	message += "\r\n" + body

	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, []byte(message))
}
