package notification

import (
	"bytes"
	"html/template"
)

var emailTemplate = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <p>Hi {{if .Name}}{{.Name}}{{else}}there{{end}},</p>
  <p>{{.Body}}</p>
  {{if .BookingID}}<p style="color:#666;">Booking reference: {{.BookingID}}</p>{{end}}
  {{if .DocumentURL}}<p><a href="{{.DocumentURL}}">View document</a></p>{{end}}
</body>
</html>`))

func renderEmail(name string, msg Message) string {
	data := struct {
		Name        string
		Body        string
		BookingID   string
		DocumentURL string
	}{Name: name, Body: msg.Body}
	if msg.Metadata != nil {
		data.BookingID = msg.Metadata.BookingID
		data.DocumentURL = msg.Metadata.DocumentURL
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return msg.Body
	}
	return buf.String()
}
