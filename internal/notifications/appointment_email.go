package notifications

import (
	"bytes"
	"html/template"
	"time"

	"dern-backend/internal/models"
)

const appointmentEmailTemplate = `<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.Name}},</p>
  <p>{{.Headline}}</p>
  <ul>
    <li>Service: {{.ServiceType}}</li>
    <li>Start: {{.Start}}</li>
    <li>End: {{.End}}</li>
    <li>Priority: {{.Priority}}</li>
    <li>Status: {{.Status}}</li>
    {{if .Reason}}<li>Reason: {{.Reason}}</li>{{end}}
    <li>Reference: {{.AppointmentID}}</li>
  </ul>
</body>
</html>`

var appointmentEmailTmpl = template.Must(template.New("appointment_email").Parse(appointmentEmailTemplate))

type appointmentEmailData struct {
	Name          string
	Headline      string
	ServiceType   string
	Start         string
	End           string
	Priority      string
	Status        string
	Reason        string
	AppointmentID string
}

func appointmentSubject(eventType string) (string, bool) {
	switch eventType {
	case EventAppointmentCreated:
		return "Appointment scheduled", true
	case EventAppointmentUpdated:
		return "Appointment updated", true
	case EventAppointmentCanceled:
		return "Appointment canceled", true
	default:
		return "", false
	}
}

func appointmentHeadline(eventType string) string {
	switch eventType {
	case EventAppointmentCreated:
		return "A new appointment has been scheduled."
	case EventAppointmentCanceled:
		return "This appointment has been canceled."
	default:
		return "An appointment you take part in has changed."
	}
}

func buildAppointmentEmailHTML(evt Event, recipient models.User) (string, error) {
	appt := evt.Appointment
	data := appointmentEmailData{
		Name:          recipient.Name,
		Headline:      appointmentHeadline(evt.Type),
		ServiceType:   appt.ServiceType,
		Start:         appt.StartTime.UTC().Format(time.RFC1123),
		End:           appt.EndTime.UTC().Format(time.RFC1123),
		Priority:      appt.Priority,
		Status:        appt.Status,
		Reason:        appt.CancellationReason,
		AppointmentID: appt.ID,
	}
	var buf bytes.Buffer
	if err := appointmentEmailTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
