// Package notify sends an email when a task reaches a terminal status.
// Notification is optional: without an API key and recipient configured,
// NewEmailNotifierFromEnv returns nil and the pipeline runs silently.
package notify

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/gladlabs/copydesk/internal/task"
)

type EmailNotifier struct {
	apiKey      string
	fromName    string
	fromAddress string
	to          string
}

func NewEmailNotifierFromEnv() *EmailNotifier {
	apiKey := strings.TrimSpace(os.Getenv("EMAIL_API_KEY"))
	to := strings.TrimSpace(os.Getenv("NOTIFY_ADDRESS"))
	if apiKey == "" || to == "" {
		return nil
	}

	return &EmailNotifier{
		apiKey:      apiKey,
		fromName:    os.Getenv("FROM_NAME"),
		fromAddress: os.Getenv("FROM_ADDRESS"),
		to:          to,
	}
}

func (n *EmailNotifier) TaskFinished(t *task.Task) error {
	subject := fmt.Sprintf("[copydesk] Task %s %s", t.ID, t.Status)

	var body strings.Builder
	fmt.Fprintf(&body, "Topic: %s\nStatus: %s\nPhase: %s\n", t.Topic, t.Status, t.Phase)
	if t.Compliance != nil {
		fmt.Fprintf(&body, "Compliance: %s (%d/%d words, %.1f%% variance)\n",
			t.Compliance.Verdict, t.Compliance.ActualLength, t.Compliance.TargetLength, t.Compliance.VariancePct)
	}
	if t.Error != nil {
		fmt.Fprintf(&body, "Error in %s: %s\n", t.Error.Phase, t.Error.Cause)
	}
	if t.Result != nil {
		fmt.Fprintf(&body, "Title: %s\n", t.Result.Title)
	}

	from := mail.NewEmail(n.fromName, n.fromAddress)
	toEmail := mail.NewEmail("", n.to)
	email := mail.NewSingleEmail(from, subject, toEmail, body.String(), body.String())
	client := sendgrid.NewSendClient(n.apiKey)

	response, err := client.Send(email)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}

	log.Printf("Notification sent to %s for task %s (status: %d)", n.to, t.ID, response.StatusCode)
	return nil
}
