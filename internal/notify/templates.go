package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// emailDetails is what both appointment emails embed.
type emailDetails struct {
	RecipientName  string
	When           string
	SpecialistName string
	SpecialistType string
	PatientName    string
	Reason         string
	Notes          string
}

var patientConfirmationTmpl = template.Must(template.New("patient").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>Your appointment is confirmed</h2>
  <p>Hi {{.RecipientName}},</p>
  <p>Your appointment has been booked. Here are the details:</p>
  <ul>
    <li><strong>When:</strong> {{.When}}</li>
    <li><strong>With:</strong> {{.SpecialistName}}{{if .SpecialistType}} ({{.SpecialistType}}){{end}}</li>
    <li><strong>Reason:</strong> {{.Reason}}</li>
    {{- if .Notes}}
    <li><strong>Notes:</strong> {{.Notes}}</li>
    {{- end}}
  </ul>
  <p>You can join the video visit from your dashboard a few minutes before the start time.</p>
</body>
</html>`))

var doctorAlertTmpl = template.Must(template.New("doctor").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2>New appointment booked</h2>
  <p>Hello {{.RecipientName}},</p>
  <p>A patient has booked an appointment with you.</p>
  <ul>
    <li><strong>Patient:</strong> {{.PatientName}}</li>
    <li><strong>When:</strong> {{.When}}</li>
    <li><strong>Reason:</strong> {{.Reason}}</li>
    {{- if .Notes}}
    <li><strong>Notes:</strong> {{.Notes}}</li>
    {{- end}}
  </ul>
</body>
</html>`))

func render(tmpl *template.Template, d emailDetails) (string, error) {
	d.Notes = strings.TrimSpace(d.Notes)
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("notify: render %s email: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

func patientConfirmation(d emailDetails) (EmailMessage, error) {
	html, err := render(patientConfirmationTmpl, d)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		Subject: fmt.Sprintf("Appointment confirmed: %s", d.When),
		HTML:    html,
	}, nil
}

func doctorAlert(d emailDetails) (EmailMessage, error) {
	html, err := render(doctorAlertTmpl, d)
	if err != nil {
		return EmailMessage{}, err
	}
	return EmailMessage{
		Subject: fmt.Sprintf("New appointment: %s on %s", d.PatientName, d.When),
		HTML:    html,
	}, nil
}
