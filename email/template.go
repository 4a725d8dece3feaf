// Package email renders caregiver alerts and delivers them through Resend or
// Amazon SES in the background.
package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/giygas/medcompanion-api/entities"
)

const subjectPrefix = "[Medication Companion]"

const alertHTML = `<div style="font-family: system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif; line-height:1.5;">
  <h2>Medication alert for {{.PatientName}}</h2>
  <p>Dear {{.Caregiver}},</p>
  <p>This is an automated notification from the <strong>Medication Companion</strong> app.</p>
  <ul>
    <li><strong>Patient:</strong> {{.PatientName}}</li>
    <li><strong>Medication:</strong> {{.MedicationName}}</li>
    <li><strong>Scheduled time:</strong> {{.ScheduledTime}}</li>
    <li><strong>Status:</strong> {{.Status}}</li>
  </ul>
  {{- if .Reason}}
  <p><strong>Reason:</strong> {{.Reason}}</p>
  {{- end}}
  <p style="margin-top:1rem; font-size: 14px; color:#555;">
    This message is for awareness only. It does not replace professional medical advice.
    Please check in with the patient directly if you are concerned.
  </p>
</div>
`

const alertText = `Medication alert for {{.PatientName}}

Dear {{.Caregiver}},

This is an automated notification from the Medication Companion app.

Patient: {{.PatientName}}
Medication: {{.MedicationName}}
Scheduled time: {{.ScheduledTime}}
Status: {{.Status}}
{{- if .Reason}}
Reason: {{.Reason}}
{{- end}}

This message is for awareness only. It does not replace professional medical advice.
Please check in with the patient directly if you are concerned.
`

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("alert.html").Parse(alertHTML))
	textTmpl = texttemplate.Must(texttemplate.New("alert.txt").Parse(alertText))
)

type alertView struct {
	entities.CaregiverAlert
	Caregiver string
}

// Subject returns the alert subject line
func Subject(alert entities.CaregiverAlert) string {
	return fmt.Sprintf("%s Dose %s: %s for %s", subjectPrefix, alert.Status, alert.MedicationName, alert.PatientName)
}

// RenderAlert builds the email for one alert. User supplied fields are
// escaped in the HTML part.
func RenderAlert(from string, alert entities.CaregiverAlert) (entities.EmailMessage, error) {
	view := alertView{CaregiverAlert: alert, Caregiver: strings.TrimSpace(alert.CaregiverName)}
	if view.Caregiver == "" {
		view.Caregiver = "caregiver"
	}

	var html, text bytes.Buffer
	if err := htmlTmpl.Execute(&html, view); err != nil {
		return entities.EmailMessage{}, fmt.Errorf("render alert html: %w", err)
	}
	if err := textTmpl.Execute(&text, view); err != nil {
		return entities.EmailMessage{}, fmt.Errorf("render alert text: %w", err)
	}

	return entities.EmailMessage{
		From:    from,
		To:      []string{alert.CaregiverEmail},
		Subject: Subject(alert),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}
