package models

// EmailPayload is the queued body of an outgoing email.
type EmailPayload struct {
	To        string `json:"to"`
	Subject   string `json:"subject"`
	HTMLBody  string `json:"htmlBody"`
	BookingID string `json:"bookingId,omitempty"`
}
