package notifications

import (
	"bytes"
	"html/template"

	"github.com/mockskills/collabzone/internal/domain/registration"
)

const ConfirmationSubject = "Registration Confirmation - MockSkills"

var confirmationTmpl = template.Must(template.New("confirmation").Parse(`<html><body>
<p style='font-size: 14px;'>Dear <b>{{.Name}}</b>,</p>
<p style='font-size: 16px; font-weight: bold;'>Welcome to MockSkills!</p>
<p style='font-size: 14px;'>We are thrilled to have you join our community.</p>
<p style='font-size: 14px; font-weight: bold;'>Your <span style='font-size: 16px; color: blue;'>Registration ID</span> is: <span style='color: blue;'>{{.FormattedID}}</span>. Please keep it safe for future reference.</p>
<p style='font-size: 14px;'>Your profile will be available soon on <span style='font-size: 16px; color: green; font-weight: bold;'>CollabZone</span>. You can search for it using your <span style='font-size: 16px; font-weight: bold;'>GenZ ID: {{.FormattedID}}</span>. We aim to complete your profile setup within the next 24 hours.</p>
<p style='font-size: 14px;'>If you have any questions or need support, our <span style='color: red; font-size: 14px; font-weight: bold;'>dedicated support team</span> is here to assist you. Feel free to reach out at any time via <a href='mailto:{{.SupportEmail}}'><b>{{.SupportEmail}}</b></a>.</p>
<p style='font-size: 14px;'>We deeply appreciate your participation in MockSkills, and we are committed to providing the support and resources you need to succeed.</p>
<p style='font-size: 14px;'>Best regards,<br>The MockSkills Team</p>
</body></html>`))

type confirmationData struct {
	Name         string
	FormattedID  string
	SupportEmail string
}

// BuildConfirmation renders the confirmation for reg. Missing name or id fall
// back to placeholders so a message can always be produced.
func BuildConfirmation(reg registration.Registration, supportEmail string) (Message, error) {
	data := confirmationData{
		Name:         reg.Name,
		FormattedID:  reg.FormattedID,
		SupportEmail: supportEmail,
	}
	if data.Name == "" {
		data.Name = "User"
	}
	if data.FormattedID == "" {
		data.FormattedID = "Unknown"
	}

	var buf bytes.Buffer
	if err := confirmationTmpl.Execute(&buf, data); err != nil {
		return Message{}, err
	}

	return Message{
		To:       reg.Email,
		Subject:  ConfirmationSubject,
		HTMLBody: buf.String(),
	}, nil
}
