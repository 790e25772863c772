package mailer

import (
	"etix/src/lib"
	"log"
)

// NewMailerMessage delivers a message through the configured SMTP client.
// Failures are reported to the caller so the submission can be retried;
// nothing is persisted on the way out.
func NewMailerMessage(input *lib.SendMailInput) error {
	if err := lib.SendMail(input); err != nil {
		log.Printf("[mailer] Error sending message: %s\n", err.Error())
		return err
	}
	return nil
}
