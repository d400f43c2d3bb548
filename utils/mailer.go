package utils

import (
	"bytes"
	"html/template"

	"gopkg.in/gomail.v2"

	"tasktracker/config"
)

var invitationTemplate = template.Must(template.New("invitation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<h2>You have been invited to a task</h2>
	<p>{{.InviterName}} invited you to join the task <strong>{{.TaskName}}</strong>{{if .AsAdmin}} as an admin{{end}}.</p>
	<p>Log in to your account to accept or decline the invitation.</p>
</body>
</html>`))

type InvitationMail struct {
	To          string
	InviterName string
	TaskName    string
	AsAdmin     bool
}

// SendInvitationEmail notifies the invited user by mail. Callers treat this
// as best effort: the invitation itself is already committed and a mail
// failure must not fail the request.
func SendInvitationEmail(mail InvitationMail) error {
	if config.AppConfig.SMTPHost == "" {
		return nil
	}

	var body bytes.Buffer
	if err := invitationTemplate.Execute(&body, mail); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", config.AppConfig.FromEmail)
	m.SetHeader("To", mail.To)
	m.SetHeader("Subject", "Task invitation: "+mail.TaskName)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)
	return d.DialAndSend(m)
}
