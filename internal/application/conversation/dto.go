package conversation

import "github.com/google/uuid"

// IncomingMessage is one inbound WhatsApp message as the webhook delivers it
type IncomingMessage struct {
	PhoneRaw      string
	Text          string
	AttachmentURL string
}

// Reply is the outbound answer the dialog engine produced for one turn
type Reply struct {
	CustomerID uuid.UUID
	Text       string
	Language   Language
}
