package Models

import (
	"os"
	"strconv"
)

type EmailConfig struct {
	SMTPServer   string
	SMTPPort     int
	Username     string
	Password     string
	FromEmail    string
	FromName     string
	TLSEnabled   bool
	SkipTLSCheck bool
}

// EmailConfigFromEnv builds the sender configuration from the
// environment. Sending is disabled when SMTP_USER is empty.
func EmailConfigFromEnv() EmailConfig {
	port := 587
	if v, err := strconv.Atoi(os.Getenv("SMTP_PORT")); err == nil && v > 0 {
		port = v
	}
	server := os.Getenv("SMTP_SERVER")
	if server == "" {
		server = "smtp.gmail.com"
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = os.Getenv("SMTP_USER")
	}
	return EmailConfig{
		SMTPServer: server,
		SMTPPort:   port,
		Username:   os.Getenv("SMTP_USER"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		FromEmail:  from,
		FromName:   "Vehicle Check",
		TLSEnabled: true,
	}
}

// EmailMessage represents an email to be sent
type EmailMessage struct {
	To          []string
	CC          []string
	BCC         []string
	Subject     string
	Body        string
	IsHTML      bool
	Attachments []Attachment
}

// Attachment represents a file attachment
type Attachment struct {
	Filename string
	Data     []byte
	MimeType string
}
