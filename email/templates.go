package email

import (
	"Inspecta/Models"
	"fmt"
	"log"
	"os"
	"time"
)

// send delivers one message with the environment configuration. Sending
// is best-effort: when SMTP is not configured the message is logged and
// dropped, and delivery failures never bubble up to the caller's
// request.
func send(message Models.EmailMessage) {
	config := Models.EmailConfigFromEnv()
	if config.Username == "" {
		log.Printf("SMTP not configured, skipping email %q to %v", message.Subject, message.To)
		return
	}
	if err := SendEmail(config, message); err != nil {
		log.Printf("Failed to send email %q to %v: %v", message.Subject, message.To, err)
	}
}

// SendAppointmentConfirmation mails the booking confirmation with the
// confirmation token the client presents at the station.
func SendAppointmentConfirmation(to, plate string, dateTime time.Time, token string) {
	body := fmt.Sprintf(
		"Your inspection appointment for vehicle %s is confirmed.\r\n\r\n"+
			"Date: %s\r\nConfirmation code: %s\r\n\r\n"+
			"Please arrive 10 minutes early and bring your vehicle documents.",
		plate, dateTime.Format("Monday, 02 Jan 2006 15:04"), token,
	)
	send(Models.EmailMessage{
		To:      []string{to},
		Subject: fmt.Sprintf("Inspection appointment confirmed - %s", plate),
		Body:    body,
	})
}

// SendAppointmentReminder mails the day-before reminder.
func SendAppointmentReminder(to, plate string, dateTime time.Time) {
	body := fmt.Sprintf(
		"Reminder: the inspection appointment for vehicle %s is tomorrow.\r\n\r\n"+
			"Date: %s\r\n\r\nIf you cannot attend, please cancel or rebook in the portal.",
		plate, dateTime.Format("Monday, 02 Jan 2006 15:04"),
	)
	send(Models.EmailMessage{
		To:      []string{to},
		Subject: fmt.Sprintf("Inspection reminder - %s", plate),
		Body:    body,
	})
}

// SendInspectionCompleted mails the owner the verdict of a completed
// inspection. Reason is included when a failing item forced a rejection.
func SendInspectionCompleted(to, plate string, passed bool, totalScore int, reason string) {
	verdict := "PASSED"
	if !passed {
		verdict = "FAILED"
	}
	body := fmt.Sprintf(
		"The inspection of vehicle %s has been completed.\r\n\r\n"+
			"Result: %s\r\nTotal score: %d\r\n",
		plate, verdict, totalScore,
	)
	if reason != "" {
		body += fmt.Sprintf("Note: %s\r\n", reason)
	}
	body += "\r\nThe full report is available in the portal."
	send(Models.EmailMessage{
		To:      []string{to},
		Subject: fmt.Sprintf("Inspection %s - %s", verdict, plate),
		Body:    body,
	})
}

// SendPasswordReset mails the reset link built from FRONTEND_URL.
func SendPasswordReset(to, token string) {
	frontend := os.Getenv("FRONTEND_URL")
	if frontend == "" {
		frontend = "http://localhost:3000"
	}
	body := fmt.Sprintf(
		"A password reset was requested for this account.\r\n\r\n"+
			"Reset link (valid for 1 hour):\r\n%s/reset-password?token=%s\r\n\r\n"+
			"If you did not request this, you can ignore this email.",
		frontend, token,
	)
	send(Models.EmailMessage{
		To:      []string{to},
		Subject: "Password reset request",
		Body:    body,
	})
}
