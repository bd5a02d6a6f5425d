package domain

// MailAttachment is a file sent along with a message
type MailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// MailMessage is an outgoing transactional e-mail
type MailMessage struct {
	ToName      string
	ToEmail     string
	Subject     string
	Text        string
	HTML        string
	Attachments []MailAttachment
}
