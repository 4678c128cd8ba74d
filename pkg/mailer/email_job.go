package mailer

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
