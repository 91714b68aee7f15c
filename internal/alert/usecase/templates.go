package usecase

import (
	"fmt"
	"strings"

	"github.com/shandysiswandi/bidwatch/internal/alert/entity"
	"github.com/shandysiswandi/bidwatch/internal/pkg/valueobject"
)

const contractMatchHTMLTemplate = `<html><body>
<h2>New contract opportunity</h2>
<p>A new announcement matches your preferences.</p>
<table>
<tr><td><strong>Title</strong></td><td>{{.title}}</td></tr>
<tr><td><strong>Agency</strong></td><td>{{.agency}}</td></tr>
<tr><td><strong>Location</strong></td><td>{{.location}}</td></tr>
<tr><td><strong>Estimated value</strong></td><td>{{.value}}</td></tr>
<tr><td><strong>Deadline</strong></td><td>{{.deadline}}</td></tr>
</table>
<p>Matched on: {{.reasons}}</p>
</body></html>`

const contractMatchTextTemplate = `New contract opportunity: {{.title}}
Agency: {{.agency}}
Location: {{.location}}
Estimated value: {{.value}}
Deadline: {{.deadline}}
Matched on: {{.reasons}}`

const deadlineReminderHTMLTemplate = `<html><body>
<h2>Bid deadline approaching</h2>
<p>The submission deadline for <strong>{{.title}}</strong> is in {{.days_left}} day(s).</p>
<table>
<tr><td><strong>Agency</strong></td><td>{{.agency}}</td></tr>
<tr><td><strong>Deadline</strong></td><td>{{.deadline}}</td></tr>
<tr><td><strong>Estimated value</strong></td><td>{{.value}}</td></tr>
</table>
</body></html>`

const deadlineReminderTextTemplate = `Bid deadline approaching: {{.title}}
Deadline in {{.days_left}} day(s) on {{.deadline}}
Agency: {{.agency}}
Estimated value: {{.value}}`

// contractPayload builds the template inputs stored on the job at enqueue
// time, so delivery renders the announcement as it looked when matched.
func contractPayload(c entity.ContractAnnouncement, reasons []string) valueobject.JSONMap {
	value := "not disclosed"
	if c.EstimatedValue != nil {
		value = formatUGX(*c.EstimatedValue)
	}

	deadline := "not set"
	if c.Deadline != nil {
		deadline = c.Deadline.Format("02 Jan 2006")
	}

	return valueobject.JSONMap{
		"title":    c.Title,
		"agency":   c.Agency,
		"location": c.Location,
		"value":    value,
		"deadline": deadline,
		"reasons":  strings.Join(reasons, "; "),
	}
}

func deadlinePayload(c entity.ContractAnnouncement, daysLeft int) valueobject.JSONMap {
	payload := contractPayload(c, nil)
	payload["days_left"] = fmt.Sprintf("%d", daysLeft)
	delete(payload, "reasons")

	return payload
}

// renderJobMessage turns a claimed job into the channel-agnostic outbound
// message. The destination is filled in per channel by the caller.
func (s *Usecase) renderJobMessage(job entity.NotificationJob) (entity.OutboundMessage, error) {
	htmlTpl, textTpl := contractMatchHTMLTemplate, contractMatchTextTemplate
	subject := "New contract opportunity: " + job.Payload.GetString("title")

	if strings.HasPrefix(job.Type.String(), entity.JobTypeDeadlineReminder.String()) {
		htmlTpl, textTpl = deadlineReminderHTMLTemplate, deadlineReminderTextTemplate
		subject = "Bid deadline approaching: " + job.Payload.GetString("title")
	}

	data := map[string]any(job.Payload)

	htmlBody, err := s.renderTemplate("html", htmlTpl, data)
	if err != nil {
		return entity.OutboundMessage{}, err
	}

	textBody, err := s.renderTemplate("text", textTpl, data)
	if err != nil {
		return entity.OutboundMessage{}, err
	}

	return entity.OutboundMessage{
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}, nil
}
