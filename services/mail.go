package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net/mail"
	"net/url"
	"os"

	"github.com/dajohi/goemail"
)

// Mailer wraps an SMTP client for sending from a preset address. It is
// disabled when SMTP credentials are not configured, in which case sends
// are silent no-ops.
type Mailer struct {
	smtp        *goemail.SMTP
	mailName    string
	mailAddress string
	disabled    bool
}

var mailer = &Mailer{disabled: true}

// InitMail sets up the process-wide mailer from SMTP_HOST, SMTP_USER,
// SMTP_PASS and SMTP_ADDRESS.
func InitMail() error {
	host := os.Getenv("SMTP_HOST")
	user := os.Getenv("SMTP_USER")
	pass := os.Getenv("SMTP_PASS")
	address := os.Getenv("SMTP_ADDRESS")

	if host == "" || user == "" || pass == "" {
		log.Println("Mail: disabled")
		mailer = &Mailer{disabled: true}
		return nil
	}

	u, err := url.Parse(fmt.Sprintf("smtps://%v:%v@%v", user, pass, host))
	if err != nil {
		return err
	}

	a, err := mail.ParseAddress(address)
	if err != nil {
		return err
	}

	smtp, err := goemail.NewSMTP(u.String(), &tls.Config{
		InsecureSkipVerify: os.Getenv("SMTP_SKIP_VERIFY") == "true",
	})
	if err != nil {
		return err
	}

	mailer = &Mailer{
		smtp:        smtp,
		mailName:    a.Name,
		mailAddress: a.Address,
	}
	log.Printf("Mail host: smtps://%v:[password]@%v", user, host)
	return nil
}

// SendMail emails a single recipient. Best-effort callers run this in a
// goroutine and log the error.
func SendMail(to, subject, body string) error {
	if mailer.disabled || to == "" {
		return nil
	}
	msg := goemail.NewMessage(mailer.mailAddress, subject, body)
	msg.SetName(mailer.mailName)
	msg.AddTo(to)
	return mailer.smtp.Send(msg)
}

// SendMailAsync fires SendMail on a goroutine, logging failure.
func SendMailAsync(to, subject, body string) {
	go func() {
		if err := SendMail(to, subject, body); err != nil {
			log.Printf("Failed to send mail %q to %s: %v", subject, to, err)
		}
	}()
}
